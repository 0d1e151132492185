package settings

import id "shopflow/pkg/domain"

// DefaultWorkflowRules is the work order lifecycle seeded on first boot.
// Operators change it through the settings store afterwards.
func DefaultWorkflowRules() WorkflowRulesDoc {
	return WorkflowRulesDoc{
		Entities: []EntityRules{
			{
				EntityType: string(id.EntityTypeWorkOrder),
				Statuses: []StatusDef{
					{Code: "NEW", Label: "New", SortOrder: 10},
					{Code: "IN_PROGRESS", Label: "In progress", SortOrder: 20},
					{Code: "ON_HOLD", Label: "On hold", SortOrder: 30},
					{Code: "DONE", Label: "Done", SortOrder: 40},
					{Code: "CANCELLED", Label: "Cancelled", SortOrder: 50},
				},
				Transitions: map[string][]string{
					"NEW":         {"IN_PROGRESS", "CANCELLED"},
					"IN_PROGRESS": {"ON_HOLD", "DONE", "CANCELLED"},
					"ON_HOLD":     {"IN_PROGRESS", "CANCELLED"},
					"DONE":        {},
					"CANCELLED":   {},
				},
				Total:          true,
				InitialStatus:  "NEW",
				IdempotentNoOp: true,
			},
		},
	}
}

// DefaultEscalation seeds elevated roles and transition notifications.
func DefaultEscalation() EscalationDoc {
	return EscalationDoc{
		Entities: []EntityEscalation{
			{
				EntityType:    string(id.EntityTypeWorkOrder),
				ElevatedRoles: []string{"admin", "supervisor"},
				Notifications: []NotificationRule{
					{
						ToStatus: "DONE",
						Type:     "work_order_done",
						Title:    "Work order completed",
						Message:  "A work order was marked as done.",
					},
					{
						ToStatus: "CANCELLED",
						Type:     "work_order_cancelled",
						Title:    "Work order cancelled",
					},
				},
			},
		},
	}
}
