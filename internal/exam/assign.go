package exam

import (
	"context"
	"fmt"

	"github.com/pavelanni/otms/internal/model"
)

// Assign gives an active test owned by teacherID to each student. Pairs that
// were already assigned keep their existing row.
func (s *Service) Assign(ctx context.Context, teacherID, testID int64, studentIDs []int64) ([]model.StudentTest, error) {
	if len(studentIDs) == 0 {
		return nil, model.Invalid("student_ids", "at least one student is required")
	}
	ids := make([]int64, 0, len(studentIDs))
	seen := make(map[int64]bool, len(studentIDs))
	for _, id := range studentIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if _, err := s.ownedTest(ctx, teacherID, testID, true); err != nil {
		return nil, err
	}

	users, err := s.store.ListUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	students := make(map[int64]bool, len(users))
	for _, u := range users {
		if u.Role == model.UserRoleStudent {
			students[u.ID] = true
		}
	}
	for _, id := range ids {
		if !students[id] {
			return nil, model.Invalid("student_ids", fmt.Sprintf("user %d is not a student", id))
		}
	}

	return s.store.AssignTest(ctx, testID, ids)
}
