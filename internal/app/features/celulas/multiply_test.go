package celulas

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func multiplyBody(t *testing.T, leader primitive.ObjectID, members ...primitive.ObjectID) string {
	t.Helper()
	hexes := make([]string, 0, len(members))
	for _, id := range members {
		hexes = append(hexes, id.Hex())
	}
	raw, err := json.Marshal(map[string]any{
		"name":        "Videira Norte",
		"description": "",
		"leader_id":   leader.Hex(),
		"member_ids":  hexes,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return string(raw)
}

func TestHandleMultiply_MovesMembersAndPromotesLeader(t *testing.T) {
	f := newFixture(t)

	leader := f.addMember(t, primitive.NilObjectID) // no ministry position yet
	a := f.addMember(t, f.source.ID)
	b := f.addMember(t, f.source.ID)

	target := models.Ministry{ID: primitive.NewObjectID(), Type: models.MinistryLeader, MatrixID: f.matrix}
	f.ministries.byType[models.MinistryLeader] = target

	rec := f.do(http.MethodPost, "/celulas/"+f.source.ID.Hex()+"/multiply", multiplyBody(t, leader, a, b))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var created models.Celula
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.DiscipuladoID != f.source.DiscipuladoID {
		t.Errorf("discipulado = %s, want the source's %s", created.DiscipuladoID.Hex(), f.source.DiscipuladoID.Hex())
	}
	if created.LeaderID != leader {
		t.Errorf("leader = %s, want %s", created.LeaderID.Hex(), leader.Hex())
	}
	for _, id := range []primitive.ObjectID{a, b} {
		if f.members.celulaOf[id] != created.ID {
			t.Errorf("member %s still in %s, want moved to the new célula", id.Hex(), f.members.celulaOf[id].Hex())
		}
	}
	if got := f.members.promoted[leader]; got != target.ID {
		t.Errorf("leader promoted to %s, want the leader ministry %s", got.Hex(), target.ID.Hex())
	}
}

func TestHandleMultiply_AbortsWhenMemberOutsideSource(t *testing.T) {
	f := newFixture(t)

	leader := f.addMember(t, primitive.NilObjectID)
	leaderPos := primitive.NewObjectID()
	m := f.members.byID[leader]
	m.MinistryPositionID = &leaderPos
	f.members.byID[leader] = m
	f.ministries.byID[leaderPos] = models.Ministry{ID: leaderPos, Type: models.MinistryLeader, MatrixID: f.matrix}

	inside := f.addMember(t, f.source.ID)
	outside := f.addMember(t, primitive.NewObjectID()) // attends another célula

	rec := f.do(http.MethodPost, "/celulas/"+f.source.ID.Hex()+"/multiply", multiplyBody(t, leader, inside, outside))
	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("status = %d, want 412 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleMultiply_RejectsEmptyMemberList(t *testing.T) {
	f := newFixture(t)
	leader := f.addMember(t, primitive.NilObjectID)

	rec := f.do(http.MethodPost, "/celulas/"+f.source.ID.Hex()+"/multiply", multiplyBody(t, leader))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
}

