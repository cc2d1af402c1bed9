// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"members", ensureMembers},
		{"matrices", ensureMatrices},
		{"matrix_memberships", ensureMatrixMemberships},
		{"ministries", ensureMinistries},
		{"roles", ensureRoles},
		{"redes", ensureRedes},
		{"discipulados", ensureDiscipulados},
		{"celulas", ensureCelulas},
		{"celula_reports", ensureCelulaReports},
		{"winner_paths", ensureWinnerPaths},
		{"groups", ensureGroups},
		{"group_roles", ensureGroupRoles},
		{"group_members", ensureGroupMembers},
		{"audit_events", ensureAuditEvents},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
	Sparse *bool  `bson:"sparse,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

// Best-effort duplicate detection across server vendors.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB returns IndexOptionsConflict when an index with the same keys
// already exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	out := map[string]existingIndex{} // key signature -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, nil
}

func createDesired(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, name string, unique bool) error {
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if isDuplicateKeyErr(err) && unique {
			return fmt.Errorf("%s(%s): cannot create unique index, duplicate values present", coll.Name(), name)
		}
		return fmt.Errorf("%s(%s): %w", coll.Name(), name, err)
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		wantUnique := desiredUnique != nil && *desiredUnique

		start := time.Now()

		existing, err := listIndexes(ctx, coll)
		if err != nil {
			zap.L().Warn("listing indexes failed",
				zap.String("collection", coll.Name()),
				zap.Error(err))
		}

		ex, found := existing[desiredSig]
		if found && sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
			zap.L().Info("reusing existing index",
				zap.String("collection", coll.Name()),
				zap.String("name", ex.Name),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}

		if found {
			// Same keys under a stale name, or options drifted. Drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop %s failed: %v", coll.Name(), desiredName, ex.Name, err))
				continue
			}
			if err := createDesired(ctx, coll, m, desiredName, wantUnique); err != nil {
				errs = append(errs, err.Error())
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", wantUnique),
				zap.String("took", time.Since(start).String()))
			continue
		}

		if err := createDesired(ctx, coll, m, desiredName, wantUnique); err != nil {
			if isOptionsConflictErr(errors.Unwrap(err)) || isOptionsConflictErr(err) {
				// Another process may have created a conflicting index between our
				// listing and the create. Drop by key signature and retry once.
				if again, lerr := listIndexes(ctx, coll); lerr == nil {
					if match, ok := again[desiredSig]; ok {
						if _, derr := coll.Indexes().DropOne(ctx, match.Name); derr != nil {
							zap.L().Warn("failed to drop conflicting index",
								zap.String("collection", coll.Name()),
								zap.String("name", match.Name),
								zap.Error(derr))
						}
						if rerr := createDesired(ctx, coll, m, desiredName, wantUnique); rerr == nil {
							zap.L().Info("index recreated after conflict",
								zap.String("collection", coll.Name()),
								zap.String("name", desiredName),
								zap.String("keys", desiredSig),
								zap.String("took", time.Since(start).String()))
							continue
						}
					}
				}
			}
			errs = append(errs, err.Error())
			continue
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", wantUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureMembers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("members")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email is the login identity; unique where present. Members without
		// system access carry no email, hence sparse.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_members_email"),
		},
		// Directory pages sort by folded name with _id as tiebreak.
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_members_fullnameci__id"),
		},
		// Attendance rosters and leadership checks look members up by célula.
		{
			Keys:    bson.D{{Key: "celula_id", Value: 1}},
			Options: options.Index().SetName("idx_members_celula"),
		},
		{
			Keys:    bson.D{{Key: "ministry_position_id", Value: 1}},
			Options: options.Index().SetName("idx_members_ministry_position"),
		},
	})
}

func ensureMatrices(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("matrices")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_matrices_nameci"),
		},
		// Host-based tenant resolution scans the domains array.
		{
			Keys:    bson.D{{Key: "domains", Value: 1}},
			Options: options.Index().SetName("idx_matrices_domains"),
		},
	})
}

func ensureMatrixMemberships(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("matrix_memberships")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One membership row per (member, matrix) pair; also serves the
		// "which matrices can this member enter" lookup at login.
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "matrix_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_memberships_member_matrix"),
		},
		// Matrix rosters.
		{
			Keys:    bson.D{{Key: "matrix_id", Value: 1}, {Key: "member_id", Value: 1}},
			Options: options.Index().SetName("idx_memberships_matrix_member"),
		},
	})
}

func ensureMinistries(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("ministries")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "matrix_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_ministries_matrix_nameci"),
		},
		// Eligibility checks resolve the lowest-priority ministry of a type.
		{
			Keys:    bson.D{{Key: "matrix_id", Value: 1}, {Key: "type", Value: 1}, {Key: "priority", Value: 1}},
			Options: options.Index().SetName("idx_ministries_matrix_type_priority"),
		},
	})
}

func ensureRoles(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("roles")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "matrix_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_roles_matrix_nameci"),
		},
	})
}

func ensureRedes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("redes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "matrix_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_redes_matrix_nameci"),
		},
		// Permission resolution: "which redes does this pastor hold".
		{
			Keys:    bson.D{{Key: "pastor_id", Value: 1}},
			Options: options.Index().SetName("idx_redes_pastor"),
		},
	})
}

func ensureDiscipulados(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("discipulados")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "matrix_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_discipulados_matrix_nameci"),
		},
		// Rede drill-down and delete guards count children by rede.
		{
			Keys:    bson.D{{Key: "rede_id", Value: 1}},
			Options: options.Index().SetName("idx_discipulados_rede"),
		},
		{
			Keys:    bson.D{{Key: "discipulador_id", Value: 1}},
			Options: options.Index().SetName("idx_discipulados_discipulador"),
		},
	})
}

func ensureCelulas(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("celulas")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "matrix_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_celulas_matrix_nameci"),
		},
		{
			Keys:    bson.D{{Key: "discipulado_id", Value: 1}},
			Options: options.Index().SetName("idx_celulas_discipulado"),
		},
		// Permission resolution scans leadership fields for the signed-in member.
		{
			Keys:    bson.D{{Key: "leader_id", Value: 1}},
			Options: options.Index().SetName("idx_celulas_leader"),
		},
		{
			Keys:    bson.D{{Key: "vice_leader_id", Value: 1}},
			Options: options.Index().SetName("idx_celulas_vice_leader"),
		},
		{
			Keys:    bson.D{{Key: "trainee_ids", Value: 1}},
			Options: options.Index().SetName("idx_celulas_trainees"),
		},
	})
}

func ensureCelulaReports(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("celula_reports")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Report history reads newest-first per célula.
		{
			Keys:    bson.D{{Key: "celula_id", Value: 1}, {Key: "meeting_date", Value: -1}},
			Options: options.Index().SetName("idx_reports_celula_date"),
		},
	})
}

func ensureWinnerPaths(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("winner_paths")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "matrix_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_winnerpaths_matrix_nameci"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("groups")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Invite codes are the join handle; collisions would leak groups.
		{
			Keys:    bson.D{{Key: "invite_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_groups_invite_code"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_owner"),
		},
	})
}

func ensureGroupRoles(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("group_roles")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("idx_grouproles_group"),
		},
	})
}

func ensureGroupMembers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("group_members")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "member_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_groupmembers_group_member"),
		},
		// "My groups" listing.
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}},
			Options: options.Index().SetName("idx_groupmembers_member"),
		},
		// Role delete guard counts assignments.
		{
			Keys:    bson.D{{Key: "role_id", Value: 1}},
			Options: options.Index().SetName("idx_groupmembers_role"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Retention pruning deletes by age.
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_audit_created"),
		},
		// Review queries filter by category, newest first.
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_created"),
		},
	})
}
