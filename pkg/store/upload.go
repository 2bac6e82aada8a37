package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dotatlas/dotatlas/pkg/assign"
	"github.com/dotatlas/dotatlas/pkg/dots"
	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
	"github.com/dotatlas/dotatlas/pkg/observability"
)

// UploadPrecincts replaces the state's precinct collection with the given
// layer. Features without geometry are skipped: they cannot satisfy the
// 2dsphere index and carry nothing the frontend can draw.
func (s *Store) UploadPrecincts(ctx context.Context, state string, l *geo.Layer) (Batch, error) {
	batch := newBatch(state)

	docs := make([]any, 0, l.Len())
	skipped := 0
	for _, f := range l.Features {
		if f.Geom == nil {
			skipped++
			continue
		}
		docs = append(docs, precinctDoc(f, batch))
	}
	if skipped > 0 {
		s.logger.Warn("skipping features without geometry", "state", state, "count", skipped)
	}

	if err := s.replaceAll(ctx, precinctCollection(state), docs); err != nil {
		return Batch{}, err
	}
	s.logger.Info("uploaded precincts", "state", state, "count", len(docs), "batch", batch.ID)
	return batch, nil
}

// UploadDots replaces the state's dot collection.
func (s *Store) UploadDots(ctx context.Context, state string, ds []dots.Dot) (Batch, error) {
	batch := newBatch(state)

	docs := make([]any, 0, len(ds))
	for _, d := range ds {
		docs = append(docs, dotDoc(d, batch))
	}

	if err := s.replaceAll(ctx, dotCollection(state), docs); err != nil {
		return Batch{}, err
	}
	s.logger.Info("uploaded dots", "state", state, "count", len(docs), "batch", batch.ID)
	return batch, nil
}

// UploadPlan upserts the plan record by its plan ID.
func (s *Store) UploadPlan(ctx context.Context, p assign.Plan) error {
	_, err := s.db.Collection(plansCollection).ReplaceOne(ctx,
		bson.M{"plan_id": p.PlanID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "upsert plan %s", p.PlanID)
	}
	s.logger.Info("uploaded plan", "plan", p.PlanID)
	return nil
}

// UploadAssignments upserts one document per record, keyed by plan and
// precinct. Re-running a plan overwrites its previous assignments in place.
func (s *Store) UploadAssignments(ctx context.Context, planID string, recs []assign.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(recs))
	for _, rec := range recs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"plan_id": planID, "precinct_id": rec.MemberID}).
			SetReplacement(assignmentDoc(planID, rec)).
			SetUpsert(true))
	}

	res, err := s.db.Collection(assignmentsCollection).
		BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "upsert assignments for %s", planID)
	}

	n := int(res.UpsertedCount + res.MatchedCount)
	s.logger.Info("uploaded assignments", "plan", planID, "count", len(recs))
	return n, nil
}

// replaceAll clears a collection and inserts the new document set.
func (s *Store) replaceAll(ctx context.Context, coll string, docs []any) (err error) {
	start := time.Now()
	observability.Upload().OnUploadStart(ctx, coll)
	defer func() {
		observability.Upload().OnUploadComplete(ctx, coll, len(docs), time.Since(start), err)
	}()

	c := s.db.Collection(coll)
	if _, derr := c.DeleteMany(ctx, bson.M{}); derr != nil {
		err = errors.Wrap(errors.ErrCodeStorage, derr, "clear %s", coll)
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	if _, ierr := c.InsertMany(ctx, docs); ierr != nil {
		err = errors.Wrap(errors.ErrCodeStorage, ierr, "insert into %s", coll)
		return err
	}
	return nil
}
