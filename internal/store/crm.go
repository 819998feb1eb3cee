package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mandatohub/mandato/internal/model"
)

// ---------------------------------------------------------------------------
// Contacts
// ---------------------------------------------------------------------------

// CreateContact inserts a new contact record.
func (s *Store) CreateContact(ctx context.Context, c *model.Contact) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	const q = `INSERT INTO contacts
		(name, email, phone, neighborhood, city, tags, notes, created_by, created_at, updated_at)
		VALUES
		(:name, :email, :phone, :neighborhood, :city, :tags, :notes, :created_by, :created_at, :updated_at)`

	id, err := s.insertGetID(ctx, q, c)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	c.ID = id
	return nil
}

// GetContact returns a contact by ID.
func (s *Store) GetContact(ctx context.Context, id int64) (*model.Contact, error) {
	var c model.Contact
	if err := s.db.GetContext(ctx, &c, s.rebind("SELECT * FROM contacts WHERE id = ?"), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return &c, nil
}

// ListContacts returns a page of contacts ordered by name.
func (s *Store) ListContacts(ctx context.Context, limit, offset int) ([]model.Contact, error) {
	var contacts []model.Contact
	q := s.rebind("SELECT * FROM contacts ORDER BY name LIMIT ? OFFSET ?")
	if err := s.db.SelectContext(ctx, &contacts, q, limit, offset); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// UpdateContact replaces a contact's mutable fields.
func (s *Store) UpdateContact(ctx context.Context, c *model.Contact) error {
	c.UpdatedAt = time.Now().UTC()

	const q = `UPDATE contacts SET
		name = :name, email = :email, phone = :phone, neighborhood = :neighborhood,
		city = :city, tags = :tags, notes = :notes, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contact rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact removes a contact by ID.
func (s *Store) DeleteContact(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM contacts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Demands
// ---------------------------------------------------------------------------

// CreateDemand inserts a new demand in the "aberta" column unless a status
// was provided.
func (s *Store) CreateDemand(ctx context.Context, d *model.Demand) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = model.DemandOpen
	}

	const q = `INSERT INTO demands
		(title, description, status, priority, contact_id, assignee_id, created_by, created_at, updated_at)
		VALUES
		(:title, :description, :status, :priority, :contact_id, :assignee_id, :created_by, :created_at, :updated_at)`

	id, err := s.insertGetID(ctx, q, d)
	if err != nil {
		return fmt.Errorf("insert demand: %w", err)
	}
	d.ID = id
	return nil
}

// GetDemand returns a demand by ID.
func (s *Store) GetDemand(ctx context.Context, id int64) (*model.Demand, error) {
	var d model.Demand
	if err := s.db.GetContext(ctx, &d, s.rebind("SELECT * FROM demands WHERE id = ?"), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get demand: %w", err)
	}
	return &d, nil
}

// ListDemands returns demands, optionally filtered to one kanban column.
func (s *Store) ListDemands(ctx context.Context, status string) ([]model.Demand, error) {
	var demands []model.Demand
	var err error
	if status != "" {
		q := s.rebind("SELECT * FROM demands WHERE status = ? ORDER BY priority DESC, created_at")
		err = s.db.SelectContext(ctx, &demands, q, status)
	} else {
		err = s.db.SelectContext(ctx, &demands, "SELECT * FROM demands ORDER BY priority DESC, created_at")
	}
	if err != nil {
		return nil, fmt.Errorf("list demands: %w", err)
	}
	return demands, nil
}

// UpdateDemand replaces a demand's mutable fields.
func (s *Store) UpdateDemand(ctx context.Context, d *model.Demand) error {
	d.UpdatedAt = time.Now().UTC()

	const q = `UPDATE demands SET
		title = :title, description = :description, status = :status, priority = :priority,
		contact_id = :contact_id, assignee_id = :assignee_id, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, d)
	if err != nil {
		return fmt.Errorf("update demand: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update demand rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDemandStatus moves a demand to another kanban column.
func (s *Store) UpdateDemandStatus(ctx context.Context, id int64, status string) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE demands SET status = ?, updated_at = ? WHERE id = ?"),
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update demand status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update demand status rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDemand removes a demand by ID.
func (s *Store) DeleteDemand(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM demands WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete demand: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete demand rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// CreateEvent inserts a new agenda entry.
func (s *Store) CreateEvent(ctx context.Context, e *model.Event) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	const q = `INSERT INTO events
		(title, location, notes, starts_at, ends_at, created_by, created_at, updated_at)
		VALUES
		(:title, :location, :notes, :starts_at, :ends_at, :created_by, :created_at, :updated_at)`

	id, err := s.insertGetID(ctx, q, e)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	e.ID = id
	return nil
}

// GetEvent returns an event by ID.
func (s *Store) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	var e model.Event
	if err := s.db.GetContext(ctx, &e, s.rebind("SELECT * FROM events WHERE id = ?"), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// ListEvents returns all events in chronological order.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.SelectContext(ctx, &events, "SELECT * FROM events ORDER BY starts_at"); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// UpdateEvent replaces an event's mutable fields.
func (s *Store) UpdateEvent(ctx context.Context, e *model.Event) error {
	e.UpdatedAt = time.Now().UTC()

	const q = `UPDATE events SET
		title = :title, location = :location, notes = :notes,
		starts_at = :starts_at, ends_at = :ends_at, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, e)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes an event by ID.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM events WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Public capture (leads, survey responses)
// ---------------------------------------------------------------------------

// CreateLead stores a lead captured through a public landing page.
func (s *Store) CreateLead(ctx context.Context, l *model.Lead) error {
	l.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO leads (name, email, phone, source, api_key_id, created_at)
		VALUES (:name, :email, :phone, :source, :api_key_id, :created_at)`

	id, err := s.insertGetID(ctx, q, l)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	l.ID = id
	return nil
}

// ListLeads returns all captured leads, newest first.
func (s *Store) ListLeads(ctx context.Context) ([]model.Lead, error) {
	var leads []model.Lead
	if err := s.db.SelectContext(ctx, &leads, "SELECT * FROM leads ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// CreateSurveyResponse stores a survey answer set submitted via the public API.
func (s *Store) CreateSurveyResponse(ctx context.Context, r *model.SurveyResponse) error {
	r.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO survey_responses (survey_slug, answers, api_key_id, created_at)
		VALUES (:survey_slug, :answers, :api_key_id, :created_at)`

	id, err := s.insertGetID(ctx, q, r)
	if err != nil {
		return fmt.Errorf("insert survey response: %w", err)
	}
	r.ID = id
	return nil
}
