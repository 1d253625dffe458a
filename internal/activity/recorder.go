// Package activity records repository mutations to the audit trail.
// Recording is best-effort outside import transactions: a failed append
// logs and never blocks the mutation it describes.
package activity

import (
	"context"
	"log"
	"time"

	"github.com/industrialdt/aashub/internal/aas"
	"github.com/industrialdt/aashub/internal/storage"
)

// Recorder appends activity entries for mutations that run outside an
// import transaction, such as uploads.
type Recorder struct {
	store storage.ActivityStore
	now   func() time.Time
}

// NewRecorder creates a recorder over the activity store.
func NewRecorder(store storage.ActivityStore) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record appends one entry. Failures are logged and swallowed so the
// audit trail never fails the operation it narrates.
func (r *Recorder) Record(ctx context.Context, activity aas.Activity) {
	if r == nil || r.store == nil {
		return
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = r.now()
	}
	if err := r.store.AppendActivity(ctx, activity); err != nil {
		log.Printf("activity append type=%s action=%s identifier=%s err=%v",
			activity.Type, activity.Action, activity.Identifier, err)
	}
}

// PackageUploaded records a package upload.
func (r *Recorder) PackageUploaded(ctx context.Context, packageID, filename string) {
	r.Record(ctx, aas.Activity{
		Type:       aas.ActivityPackage,
		Action:     aas.ActionCreate,
		Identifier: packageID,
		Filename:   filename,
	})
}
