package storage

import (
	"context"

	"github.com/portfoliohq/portfolio/pkg/domain/account"
)

func (r *FilesystemRepository) LoadUsers(ctx context.Context) ([]account.User, error) {
	users := make([]account.User, 0)
	if _, err := r.readJSON(ctx, UsersFile, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = make([]account.User, 0)
	}
	return users, nil
}

func (r *FilesystemRepository) SaveUsers(ctx context.Context, users []account.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if users == nil {
		users = make([]account.User, 0)
	}
	return r.writeJSON(UsersFile, users)
}
