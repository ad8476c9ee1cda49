// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"database/sql"

	"github.com/foresightlab/signalhub/internal/models"
)

// Querier is the subset of database/sql used by the read-side packages
// (access resolution and search). Both *sql.DB and *sql.Tx implement it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store defines the persistence operations required by the service
// layer. The abstraction allows swapping storage backends without
// changing services; the shipped implementation is SQLite.
//
// Mutating group operations record the acting user in the group's audit
// trail within the same transaction. Membership additions are idempotent:
// adding an existing member, admin or signal is a no-op.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)

	// Signals.
	CreateSignal(ctx context.Context, signal *models.Signal) error
	GetSignal(ctx context.Context, id int64) (*models.Signal, error)
	UpdateSignal(ctx context.Context, signal *models.Signal) error
	DeleteSignal(ctx context.Context, id int64) error

	// Trends.
	CreateTrend(ctx context.Context, trend *models.Trend) error
	GetTrend(ctx context.Context, id int64) (*models.Trend, error)
	UpdateTrend(ctx context.Context, trend *models.Trend) error
	DeleteTrend(ctx context.Context, id int64) error

	// Groups.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID int64) ([]*models.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	AddMember(ctx context.Context, groupID, userID int64, actor string) error
	RemoveMember(ctx context.Context, groupID, userID int64, actor string) error
	AddAdmin(ctx context.Context, groupID, userID int64, actor string) error
	RemoveAdmin(ctx context.Context, groupID, userID int64, actor string) error
	AddSignal(ctx context.Context, groupID, signalID int64, actor string) error
	RemoveSignal(ctx context.Context, groupID, signalID int64, actor string) error
	SetCollaborators(ctx context.Context, groupID, signalID int64, userIDs []int64, actor string) error
	AuditTrail(ctx context.Context, groupID int64) ([]models.AuditEntry, error)

	// Favourites: per-user signal bookmarks.
	ToggleFavourite(ctx context.Context, userID, signalID int64) (bool, error)
	FavouriteSignalIDs(ctx context.Context, userID int64) ([]int64, error)

	// Reference data for facet expansion.
	UpsertLocation(ctx context.Context, name, region, bureau string) error
	UpsertUnit(ctx context.Context, name, region string) error

	// Reader exposes a raw querier for the access resolver and the
	// ranking engine, which compose their own single-statement queries.
	Reader() Querier

	// Close releases any resources held by the store.
	Close() error
}
