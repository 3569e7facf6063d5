package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

// GroupService implements roommates group operations that span several tables.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// Create persists a new group and makes creator its first member.
func (s *GroupService) Create(ctx context.Context, name string, creator *models.User) (*models.RoommatesGroup, error) {
	group := &models.RoommatesGroup{Name: name}
	if err := s.store.CreateGroup(ctx, group, creator.ID); err != nil {
		slog.Error("CreateGroup failed", "user_id", creator.ID, "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "creator_id", creator.ID)
	return group, nil
}

// Purchases collects every line item bought by the members of group.
func (s *GroupService) Purchases(ctx context.Context, group *models.RoommatesGroup) (*models.GroupPurchases, error) {
	rows, err := s.store.GroupPurchases(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	result := GroupByUser(group, rows)
	slog.Debug("Group purchases loaded",
		"group_id", group.ID,
		"rows", len(rows),
		"users", len(result.Users),
	)
	return result, nil
}

// GroupByUser folds join rows into one entry per user, in order of each
// user's first row. Items keep row order.
func GroupByUser(group *models.RoommatesGroup, rows []storage.GroupPurchaseRow) *models.GroupPurchases {
	result := &models.GroupPurchases{Group: group, Users: []models.UserPurchases{}}
	index := make(map[int64]int)

	for _, row := range rows {
		i, ok := index[row.User.ID]
		if !ok {
			user := row.User
			i = len(result.Users)
			index[user.ID] = i
			result.Users = append(result.Users, models.UserPurchases{User: &user})
		}

		product := row.Product
		result.Users[i].Items = append(result.Users[i].Items, models.LineItem{
			ProductID: &product.ID,
			Product:   &product,
			Price:     row.Price,
		})
	}
	return result
}
