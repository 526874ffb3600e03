package tracker

import (
	"context"
	"sort"
	"strings"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/domain"
)

// LeaderboardEntry is one row of a friends comparison.
type LeaderboardEntry struct {
	Rank            int     `json:"rank"`
	UserID          string  `json:"user_id"`
	DisplayName     string  `json:"display_name"`
	TotalExperience float64 `json:"total_experience"`
	Level           int     `json:"level"`
	TierName        string  `json:"tier_name"`
	BestStreak      int     `json:"best_streak"`
	IsSelf          bool    `json:"is_self"`
}

// AddFriend follows another stored user.
func (s *Service) AddFriend(ctx context.Context, userID, friendID string) error {
	friendID = strings.TrimSpace(friendID)
	if friendID == "" || friendID == userID {
		return domain.Invalid("friend", "must be another user")
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if !contains(users, friendID) {
		return domain.ErrUserNotFound
	}
	return s.withUser(ctx, userID, func(tx *txn) error {
		if contains(tx.state.Friends, friendID) {
			return nil
		}
		o := s.begin(tx)
		tx.touchFriends()
		tx.state.Friends = append(tx.state.Friends, friendID)
		s.settle(tx, o)
		return nil
	})
}

// RemoveFriend unfollows a user.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return s.withUser(ctx, userID, func(tx *txn) error {
		kept := make([]string, 0, len(tx.state.Friends))
		for _, f := range tx.state.Friends {
			if f != friendID {
				kept = append(kept, f)
			}
		}
		if len(kept) == len(tx.state.Friends) {
			return domain.ErrUserNotFound
		}
		tx.state.Friends = kept
		tx.touchFriends()
		return nil
	})
}

// CompareFriends ranks the user and their friends by total experience.
// Friends whose documents are gone are skipped.
func (s *Service) CompareFriends(ctx context.Context, userID string) ([]LeaderboardEntry, error) {
	self, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.Today()

	entries := []LeaderboardEntry{s.leaderboardEntry(userID, self, today)}
	entries[0].IsSelf = true

	known, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range self.Friends {
		if !contains(known, f) {
			continue
		}
		state, err := s.State(ctx, f)
		if err != nil {
			return nil, err
		}
		entries = append(entries, s.leaderboardEntry(f, state, today))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalExperience != entries[j].TotalExperience {
			return entries[i].TotalExperience > entries[j].TotalExperience
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (s *Service) leaderboardEntry(userID string, state *domain.UserState, today domain.Date) LeaderboardEntry {
	total := engagement.TotalExperience(state.Records, state.BonusPoints)
	info := s.levels.Resolve(total)
	name := state.DisplayName
	if name == "" {
		name = userID
	}
	return LeaderboardEntry{
		UserID:          userID,
		DisplayName:     name,
		TotalExperience: total,
		Level:           info.CurrentLevel,
		TierName:        info.TierName,
		BestStreak:      s.stats(state, today).BestStreak,
	}
}

// SetDisplayName changes the name shown on leaderboards.
func (s *Service) SetDisplayName(ctx context.Context, userID, name string) error {
	name = s.clean(name)
	if name == "" || len(name) > maxNameLen {
		return domain.Invalid("display_name", "must be 1-60 characters")
	}
	return s.withUser(ctx, userID, func(tx *txn) error {
		tx.state.DisplayName = name
		tx.patch.DisplayName = &tx.state.DisplayName
		return nil
	})
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
