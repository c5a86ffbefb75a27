package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/repository"
)

const defaultNameListLimit = 100

var ErrNotNameOwner = errors.New("only the owner can change this name")

type NameService struct {
	nameRepo *repository.NameRepository
	log      zerolog.Logger
}

func NewNameService(nameRepo *repository.NameRepository, log zerolog.Logger) *NameService {
	return &NameService{
		nameRepo: nameRepo,
		log:      log.With().Str("component", "NameService").Logger(),
	}
}

// List 访问者的名称：登录账号按创建者，匿名访问按会话
func (s *NameService) List(ctx context.Context, caller Caller, limit int) ([]*dto.NameItem, error) {
	if limit <= 0 || limit > defaultNameListLimit {
		limit = defaultNameListLimit
	}

	var (
		names []*model.Name
		err   error
	)
	switch {
	case caller.Authenticated():
		names, err = s.nameRepo.ListByCreator(ctx, caller.AccountID, false, limit)
	case caller.SessionID != "":
		names, err = s.nameRepo.ListBySession(ctx, caller.SessionID, limit)
	default:
		return nil, ErrSessionMissing
	}
	if err != nil {
		return nil, err
	}
	return nameItems(names, caller.AccountID), nil
}

// Favorites 账号收藏的名称
func (s *NameService) Favorites(ctx context.Context, accountID string) ([]*dto.NameItem, error) {
	names, err := s.nameRepo.ListByCreator(ctx, accountID, true, defaultNameListLimit)
	if err != nil {
		return nil, err
	}
	return nameItems(names, accountID), nil
}

// ToggleFavorite 切换收藏状态，仅名称所有者可操作
func (s *NameService) ToggleFavorite(ctx context.Context, accountID, nameID string) (*dto.FavoriteResponse, error) {
	name, err := s.nameRepo.GetByID(ctx, nameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNameNotFound
		}
		return nil, err
	}
	if !name.OwnedBy(accountID) {
		return nil, ErrNotNameOwner
	}

	favorited := !name.Favorited
	if err := s.nameRepo.UpdateFavorited(ctx, nameID, favorited); err != nil {
		return nil, err
	}

	message := "Removed from favorites"
	if favorited {
		message = "Added to favorites"
	}
	return &dto.FavoriteResponse{NameID: nameID, Favorited: favorited, Message: message}, nil
}

func nameItems(names []*model.Name, accountID string) []*dto.NameItem {
	items := make([]*dto.NameItem, 0, len(names))
	for _, n := range names {
		items = append(items, &dto.NameItem{
			ID:          n.ID,
			Name:        n.Name,
			Description: n.Description,
			Favorited:   n.Favorited,
			IsOwner:     n.OwnedBy(accountID),
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		})
	}
	return items
}
