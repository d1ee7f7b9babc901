package reconcile

import (
	"context"

	"github.com/trezcool/shule/core/batch"
	"github.com/trezcool/shule/core/school"
)

// Commit writes the guardian phones of every valid record; an empty phone clears the stored number.
// A failed record does not stop the others.
func Commit(ctx context.Context, store school.LearnerStore, valid []Record, workers int) (batch.Report, error) {
	return batch.Run(ctx, workers, valid, recordKey, func(ctx context.Context, rec Record) error {
		return store.UpdateGuardianPhones(ctx, rec.Identity.LearnerID, rec.Phone1, rec.Phone2)
	})
}

func recordKey(rec Record) string {
	return rec.AdmissionNo
}
