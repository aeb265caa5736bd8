package worker

import (
	"testing"

	"flowcrm/models"
)

func TestRelatedEntity(t *testing.T) {
	cases := []struct {
		name     string
		payload  map[string]string
		wantType string
		wantID   uint
	}{
		{"lead", map[string]string{"lead_id": "12"}, models.EntityLead, 12},
		{"deal", map[string]string{"deal_id": "7"}, models.EntityDeal, 7},
		{"contact", map[string]string{"contact_id": "3"}, models.EntityContact, 3},
		{"task", map[string]string{"task_id": "99"}, models.EntityTask, 99},
		{"lead wins over deal", map[string]string{"lead_id": "1", "deal_id": "2"}, models.EntityLead, 1},
		{"empty payload", map[string]string{}, "", 0},
		{"non-numeric id", map[string]string{"lead_id": "abc"}, "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotType, gotID := relatedEntity(tc.payload)
			if gotType != tc.wantType {
				t.Errorf("type = %q, want %q", gotType, tc.wantType)
			}
			if tc.wantID == 0 {
				if gotID != nil {
					t.Errorf("id = %v, want nil", *gotID)
				}
				return
			}
			if gotID == nil || *gotID != tc.wantID {
				t.Errorf("id = %v, want %d", gotID, tc.wantID)
			}
		})
	}
}
