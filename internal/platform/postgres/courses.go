package postgres

import (
	"context"
	"fmt"

	"coursecrawler/internal/core/catalog"

	"github.com/jackc/pgx/v5"
)

const courseColumns = `id::text, subject_code, course_number, title, description, credit_min,
	credit_max, last_seen_term, source_url, updated_at`

const prereqColumns = `id::text, course_id::text, raw_text, parsed, confidence, updated_at`

func scanCourse(row pgx.Row) (*catalog.Course, error) {
	var c catalog.Course
	err := row.Scan(&c.ID, &c.SubjectCode, &c.CourseNumber, &c.Title, &c.Description,
		&c.CreditMin, &c.CreditMax, &c.LastSeenTerm, &c.SourceURL, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanPrereq(row pgx.Row) (*catalog.Prerequisite, error) {
	var p catalog.Prerequisite
	var parsed []byte
	if err := row.Scan(&p.ID, &p.CourseID, &p.RawText, &parsed, &p.Confidence, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(parsed) > 0 {
		p.Parsed = parsed
	}
	return &p, nil
}

// jsonParam passes raw JSON to a jsonb column, or NULL when empty.
func jsonParam(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// UpsertCourse inserts or updates by the (subject_code, course_number) natural key.
func (db *DB) UpsertCourse(ctx context.Context, in catalog.CourseUpsert) (*catalog.Course, error) {
	c, err := scanCourse(db.pool.QueryRow(ctx,
		`INSERT INTO course_catalog_courses
		    (subject_code, course_number, title, description, credit_min, credit_max, last_seen_term, source_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (subject_code, course_number) DO UPDATE SET
		    title          = EXCLUDED.title,
		    description    = EXCLUDED.description,
		    credit_min     = EXCLUDED.credit_min,
		    credit_max     = EXCLUDED.credit_max,
		    last_seen_term = EXCLUDED.last_seen_term,
		    source_url     = EXCLUDED.source_url,
		    updated_at     = NOW()
		 RETURNING `+courseColumns,
		in.SubjectCode, in.CourseNumber, in.Title, in.Description, in.CreditMin, in.CreditMax,
		in.LastSeenTerm, in.SourceURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert course %s %s: %w", in.SubjectCode, in.CourseNumber, err)
	}
	return c, nil
}

func (db *DB) GetCourse(ctx context.Context, subject, number string) (*catalog.Course, error) {
	c, err := scanCourse(db.pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM course_catalog_courses
		 WHERE subject_code = $1 AND course_number = $2`,
		subject, number,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("course %s %s: %w", subject, number, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return c, nil
}

func (db *DB) FindPrerequisite(ctx context.Context, courseID string) (*catalog.Prerequisite, error) {
	if !validID(courseID) {
		return nil, nil
	}
	p, err := scanPrereq(db.pool.QueryRow(ctx,
		`SELECT `+prereqColumns+` FROM course_prerequisites WHERE course_id = $1::uuid LIMIT 1`,
		courseID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find prerequisite: %w", err)
	}
	return p, nil
}

// CreatePrerequisite inserts the course's prerequisite. A concurrent insert
// for the same course turns into an update.
func (db *DB) CreatePrerequisite(ctx context.Context, courseID string, in catalog.PrerequisiteInput) (*catalog.Prerequisite, error) {
	p, err := scanPrereq(db.pool.QueryRow(ctx,
		`INSERT INTO course_prerequisites (course_id, raw_text, parsed, confidence)
		 VALUES ($1::uuid, $2, $3::jsonb, $4)
		 ON CONFLICT (course_id) DO UPDATE SET
		    raw_text   = EXCLUDED.raw_text,
		    parsed     = EXCLUDED.parsed,
		    confidence = EXCLUDED.confidence,
		    updated_at = NOW()
		 RETURNING `+prereqColumns,
		courseID, in.RawText, jsonParam(in.Parsed), in.Confidence,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create prerequisite: %w", err)
	}
	return p, nil
}

func (db *DB) UpdatePrerequisite(ctx context.Context, id string, in catalog.PrerequisiteInput) (*catalog.Prerequisite, error) {
	if !validID(id) {
		return nil, fmt.Errorf("prerequisite %s: %w", id, catalog.ErrNotFound)
	}
	p, err := scanPrereq(db.pool.QueryRow(ctx,
		`UPDATE course_prerequisites
		 SET raw_text = $2, parsed = $3::jsonb, confidence = $4, updated_at = NOW()
		 WHERE id = $1::uuid
		 RETURNING `+prereqColumns,
		id, in.RawText, jsonParam(in.Parsed), in.Confidence,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("prerequisite %s: %w", id, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update prerequisite: %w", err)
	}
	return p, nil
}
