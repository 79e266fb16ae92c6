package exam

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/pavelanni/otms/internal/model"
)

// ImportFiles loads test definitions from JSON files and creates them on
// behalf of the teacher with the given username. A file holds one test object
// or an array of them. Files imported before are skipped; a file that changed
// since its import is skipped with a warning. It returns the number of tests created.
func (s *Service) ImportFiles(ctx context.Context, teacherUsername string, paths []string) (int, error) {
	teacher, err := s.store.GetUserByUsername(ctx, teacherUsername)
	if err != nil {
		return 0, fmt.Errorf("look up teacher %q: %w", teacherUsername, err)
	}
	if teacher.Role != model.UserRoleTeacher {
		return 0, fmt.Errorf("user %q is a %s, not a teacher", teacherUsername, teacher.Role)
	}

	created := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return created, fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := s.store.GetImportedFileHash(ctx, path)
		if err != nil {
			return created, fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("tests file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("tests file changed since last import, skipping to avoid duplicating tests", "path", path)
			continue
		}

		tests, err := parseTests(data)
		if err != nil {
			return created, fmt.Errorf("parse %s: %w", path, err)
		}
		for i, ti := range tests {
			id, err := s.CreateTest(ctx, teacher.ID, ti)
			if err != nil {
				return created, fmt.Errorf("create test %d from %s: %w", i, path, err)
			}
			created++
			slog.Info("imported test", "path", path, "id", id, "name", ti.Name, "questions", len(ti.Questions))
		}

		if err := s.store.SetImportedFileHash(ctx, path, hash); err != nil {
			return created, fmt.Errorf("record import for %s: %w", path, err)
		}
	}
	return created, nil
}

func parseTests(data []byte) ([]model.TestImport, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var tests []model.TestImport
		if err := json.Unmarshal(data, &tests); err != nil {
			return nil, err
		}
		return tests, nil
	}
	var t model.TestImport
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return []model.TestImport{t}, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
