package dblayer

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// OpenAttendance writes a new attendance session with no end stamp.
func (s *Store) OpenAttendance(ctx context.Context, att *model.Attendance) error {
	ref := s.client.Collection(colAttendance).NewDoc()
	att.ID = ref.ID
	if _, err := ref.Create(ctx, att); err != nil {
		return fmt.Errorf("while creating attendance session: %w", err)
	}
	return nil
}

// GetOpenAttendance returns the employee's open session, or model.ErrNotFound
// when every session is closed.
func (s *Store) GetOpenAttendance(ctx context.Context, employeeID string) (*model.Attendance, error) {
	iter := s.client.Collection(colAttendance).
		Where("employeeId", "==", employeeID).
		Where("end", "==", nil).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("while looking up open attendance for %s: %w", employeeID, err)
	}

	att := &model.Attendance{}
	if err := snap.DataTo(att); err != nil {
		return nil, fmt.Errorf("while unmarshaling attendance %s: %w", snap.Ref.ID, err)
	}
	return att, nil
}

// CloseAttendance stamps the end of a session.
func (s *Store) CloseAttendance(ctx context.Context, id string, end model.GeoStamp) error {
	ref := s.client.Collection(colAttendance).Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{{Path: "end", Value: end}})
	if statusNotFound(err) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("while closing attendance %s: %w", id, err)
	}
	return nil
}

// ListAttendance lists sessions within the caller's scope, newest first.
func (s *Store) ListAttendance(ctx context.Context, filter *scope.Filter) ([]model.Attendance, error) {
	q := scoped(s.client.Collection(colAttendance).Query, filter).
		OrderBy("start.ts", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var sessions []model.Attendance
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating attendance: %w", err)
		}

		var a model.Attendance
		if err := snap.DataTo(&a); err != nil {
			return nil, fmt.Errorf("while unmarshaling attendance %s: %w", snap.Ref.ID, err)
		}
		sessions = append(sessions, a)
	}
	return sessions, nil
}
