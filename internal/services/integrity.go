package services

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

const (
	IssueRoomFlagMismatch  = "room_flag_mismatch"
	IssueRoomDoubleBooked  = "room_double_booked"
	IssueActiveWithoutRoom = "active_without_room"
	IssueInactiveWithRoom  = "inactive_with_room"
)

// IntegrityIssue is one disagreement between room flags and tenancy rows.
type IntegrityIssue struct {
	Kind     string `json:"kind"`
	RoomID   string `json:"room_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	Detail   string `json:"detail"`
}

type integrityState struct {
	rooms          []models.Room
	activeByRoom   map[string]int
	activeNoRoom   []models.Tenant
	inactiveInRoom []models.Tenant
}

func (s *TenancyService) loadIntegrityState(tx *gorm.DB) (*integrityState, error) {
	st := &integrityState{activeByRoom: map[string]int{}}
	if err := tx.Order("name").Find(&st.rooms).Error; err != nil {
		return nil, wrap("load rooms", err)
	}
	var tenants []models.Tenant
	if err := tx.Select("id", "full_name", "room_id", "status").Find(&tenants).Error; err != nil {
		return nil, wrap("load tenants", err)
	}
	for _, t := range tenants {
		switch {
		case t.Status == models.TenancyActive && t.RoomID == nil:
			st.activeNoRoom = append(st.activeNoRoom, t)
		case t.Status == models.TenancyActive:
			st.activeByRoom[*t.RoomID]++
		case t.RoomID != nil:
			st.inactiveInRoom = append(st.inactiveInRoom, t)
		}
	}
	return st, nil
}

func (st *integrityState) issues() []IntegrityIssue {
	var out []IntegrityIssue
	for _, r := range st.rooms {
		n := st.activeByRoom[r.ID]
		if bool(r.IsAvailable) == (n > 0) {
			out = append(out, IntegrityIssue{
				Kind:   IssueRoomFlagMismatch,
				RoomID: r.ID,
				Detail: fmt.Sprintf("room %s is_available=%t with %d active tenant(s)", r.Name, bool(r.IsAvailable), n),
			})
		}
		if n > 1 {
			out = append(out, IntegrityIssue{
				Kind:   IssueRoomDoubleBooked,
				RoomID: r.ID,
				Detail: fmt.Sprintf("room %s has %d active tenants", r.Name, n),
			})
		}
	}
	for _, t := range st.activeNoRoom {
		out = append(out, IntegrityIssue{
			Kind:     IssueActiveWithoutRoom,
			TenantID: t.ID,
			Detail:   fmt.Sprintf("active tenant %s has no room", t.FullName),
		})
	}
	for _, t := range st.inactiveInRoom {
		out = append(out, IntegrityIssue{
			Kind:     IssueInactiveWithRoom,
			TenantID: t.ID,
			RoomID:   *t.RoomID,
			Detail:   fmt.Sprintf("tenant %s is %s but still references a room", t.FullName, t.Status),
		})
	}
	return out
}

// CheckIntegrity reports every room whose flag disagrees with its active tenancies
// and every tenancy whose room reference disagrees with its status.
func (s *TenancyService) CheckIntegrity(ctx context.Context) ([]IntegrityIssue, error) {
	st, err := s.loadIntegrityState(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return st.issues(), nil
}

// RepairIntegrity clears room references held by non-active tenants and then
// recomputes every room flag from the active tenancies. Active tenants without a
// room and double bookings are reported but left for an operator.
func (s *TenancyService) RepairIntegrity(ctx context.Context) (int, error) {
	fixed := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.loadIntegrityState(tx)
		if err != nil {
			return err
		}
		for _, t := range st.inactiveInRoom {
			if err := tx.Model(&models.Tenant{}).Where("id = ?", t.ID).Update("room_id", nil).Error; err != nil {
				return wrap("clear stale room reference", err)
			}
			fixed++
		}
		for _, r := range st.rooms {
			want := st.activeByRoom[r.ID] == 0
			if bool(r.IsAvailable) == want {
				continue
			}
			if err := s.Rooms.SetAvailable(tx, r.ID, want); err != nil {
				return err
			}
			log.Printf("integrity: room %s is_available %t -> %t", r.ID, bool(r.IsAvailable), want)
			fixed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return fixed, nil
}
