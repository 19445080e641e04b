package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/padraicbc/f1picks/models"
)

// Group loads a group by id.
func (s *Store) Group(ctx context.Context, id int) (*models.Group, error) {
	g := &models.Group{}
	if err := s.db.NewSelect().Model(g).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "group", id)
	}
	return g, nil
}

// GroupByInviteCode loads a group by its invite code.
func (s *Store) GroupByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	g := &models.Group{}
	if err := s.db.NewSelect().Model(g).Where("invite_code = ?", code).Scan(ctx); err != nil {
		return nil, notFound(err, "invite code", code)
	}
	return g, nil
}

// GroupsByID loads several groups at once.
func (s *Store) GroupsByID(ctx context.Context, ids []int) ([]models.Group, error) {
	var groups []models.Group
	if len(ids) == 0 {
		return groups, nil
	}
	err := s.db.NewSelect().Model(&groups).Where("id IN (?)", bun.In(ids)).Scan(ctx)
	return groups, err
}

// CreateGroup inserts the group and makes its creator an admin member.
func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NewInsert().Model(g).Exec(ctx); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	member := &models.GroupMember{GroupID: g.ID, UserID: g.CreatorID, IsAdmin: true}
	if _, err = tx.NewInsert().Model(member).Exec(ctx); err != nil {
		return fmt.Errorf("insert creator membership: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Member returns the membership of a user in a group.
func (s *Store) Member(ctx context.Context, groupID, userID int) (*models.GroupMember, error) {
	m := &models.GroupMember{}
	err := s.db.NewSelect().Model(m).
		Where("group_id = ?", groupID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "membership", fmt.Sprintf("%d/%d", groupID, userID))
	}
	return m, nil
}

// AddMember inserts a non-admin membership.
func (s *Store) AddMember(ctx context.Context, groupID, userID int) error {
	_, err := s.db.NewInsert().Model(&models.GroupMember{GroupID: groupID, UserID: userID}).Exec(ctx)
	return err
}

// GroupUsers lists the users belonging to a group.
func (s *Store) GroupUsers(ctx context.Context, groupID int) ([]models.User, error) {
	var users []models.User
	err := s.db.NewSelect().Model(&users).
		Join("JOIN group_members AS gm ON gm.user_id = u.id").
		Where("gm.group_id = ?", groupID).
		OrderExpr("u.id ASC").
		Scan(ctx)
	return users, err
}
