package controller

import (
	"fmt"
	"strconv"
	"time"

	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

// LeadController handles the lead lifecycle up to and including conversion.
type LeadController struct {
	Store *store.Store
}

func NewLeadController(s *store.Store) *LeadController {
	return &LeadController{Store: s}
}

type CreateLeadInput struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty" validate:"omitempty,max=100"`
	Title     string `json:"title,omitempty"`
	Website   string `json:"website,omitempty"`

	Source string `json:"source,omitempty"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified lost"`
	Stage  string `json:"stage,omitempty"`

	Value             float64    `json:"value,omitempty" validate:"omitempty,gte=0"`
	Probability       int        `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`

	AssignedTo *uint    `json:"assigned_to,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Create registers a new lead, assigns its sequence number and fires
// lead_created workflows.
func (lc *LeadController) Create(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)

	var input CreateLeadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	lead := models.Lead{
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Email:             input.Email,
		Phone:             input.Phone,
		Company:           input.Company,
		Title:             input.Title,
		Website:           input.Website,
		Source:            input.Source,
		Status:            input.Status,
		Stage:             input.Stage,
		Value:             input.Value,
		Probability:       input.Probability,
		ExpectedCloseDate: input.ExpectedCloseDate,
		AssignedTo:        input.AssignedTo,
		Tags:              input.Tags,
		CreatedBy:         user.ID,
	}

	if err := t.CreateLead(c.UserContext(), &lead); err != nil {
		return storeErrResponse(c, err, "Lead")
	}

	lc.fireTrigger(c, models.TriggerLeadCreated, leadPayload(&lead))

	return utils.SuccessResponse(c, fiber.StatusCreated, "Lead created", lead)
}

// Get returns a lead with its notes.
func (lc *LeadController) Get(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))
	lead, err := t.FindLeadByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Lead retrieved", lead)
}

// List returns a filtered, paginated page of leads.
func (lc *LeadController) List(c *fiber.Ctx) error {
	t := tenantDB(c)
	opts := parseListOptions(c)
	filter := store.LeadFilter{
		Status:     c.Query("status"),
		Source:     c.Query("source"),
		Stage:      c.Query("stage"),
		AssignedTo: optionalUintQuery(c, "assigned_to"),
	}

	leads, pagination, err := t.FindLeads(c.UserContext(), filter, opts)
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}
	return utils.PaginatedResponse(c, "Leads retrieved", leads, pagination)
}

type UpdateLeadInput struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=50"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty"`
	Company   *string `json:"company,omitempty"`
	Title     *string `json:"title,omitempty"`
	Website   *string `json:"website,omitempty"`

	Source *string `json:"source,omitempty"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified lost"`
	Stage  *string `json:"stage,omitempty"`

	Value             *float64   `json:"value,omitempty" validate:"omitempty,gte=0"`
	Probability       *int       `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`

	AssignedTo *uint     `json:"assigned_to,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	LostReason *string   `json:"lost_reason,omitempty"`
}

// Update applies a partial update. A converted lead is immutable except
// through conversion itself; the status field can never be set to converted
// here.
func (lc *LeadController) Update(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateLeadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	existing, err := t.FindLeadByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}
	if existing.Status == models.LeadStatusConverted {
		return storeErrResponse(c, store.ErrLeadAlreadyConverted, "Lead")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	updates := map[string]interface{}{"updated_by": user.ID}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Company != nil {
		updates["company"] = *input.Company
	}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Website != nil {
		updates["website"] = *input.Website
	}
	if input.Source != nil {
		updates["source"] = *input.Source
	}
	if input.Status != nil {
		updates["status"] = *input.Status
		if *input.Status == models.LeadStatusLost {
			updates["lost_at"] = time.Now()
		}
	}
	if input.Stage != nil {
		updates["stage"] = *input.Stage
	}
	if input.Value != nil {
		updates["value"] = *input.Value
	}
	if input.Probability != nil {
		updates["probability"] = *input.Probability
	}
	if input.ExpectedCloseDate != nil {
		updates["expected_close_date"] = *input.ExpectedCloseDate
	}
	if input.AssignedTo != nil {
		updates["assigned_to"] = *input.AssignedTo
	}
	if input.Tags != nil {
		updates["tags"] = *input.Tags
	}
	if input.LostReason != nil {
		updates["lost_reason"] = *input.LostReason
	}

	lead, err := t.UpdateLead(c.UserContext(), id, updates)
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}

	lc.fireTrigger(c, models.TriggerLeadUpdated, leadPayload(lead))
	if input.Stage != nil && *input.Stage != existing.Stage {
		lc.fireTrigger(c, models.TriggerLeadStageChange, leadPayload(lead))
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Lead updated", lead)
}

// Delete removes a lead.
func (lc *LeadController) Delete(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	existing, err := t.FindLeadByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	if err := t.DeleteLead(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Lead")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Lead deleted", nil)
}

type AddNoteInput struct {
	Content string `json:"content" validate:"required,min=1"`
}

// AddNote appends an immutable note to the lead.
func (lc *LeadController) AddNote(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	var input AddNoteInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	note, err := t.AddNote(c.UserContext(), models.EntityLead, id, input.Content, user.ID)
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Note added", note)
}

type ConvertLeadRequest struct {
	CreateDeal        bool       `json:"create_deal"`
	DealName          string     `json:"deal_name,omitempty"`
	DealValue         float64    `json:"deal_value,omitempty" validate:"omitempty,gte=0"`
	DealStage         string     `json:"deal_stage,omitempty"`
	Probability       *int       `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	Pipeline          string     `json:"pipeline,omitempty"`
	AssignedTo        *uint      `json:"assigned_to,omitempty"`
}

// Convert promotes a lead into a contact and optional deal. The store runs
// the whole conversion in one transaction; a second call on the same lead
// fails.
func (lc *LeadController) Convert(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	var input ConvertLeadRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	result, err := t.ConvertLead(c.UserContext(), id, user.ID, store.ConvertLeadInput{
		CreateDeal:        input.CreateDeal,
		DealName:          input.DealName,
		DealValue:         input.DealValue,
		DealStage:         input.DealStage,
		Probability:       input.Probability,
		ExpectedCloseDate: input.ExpectedCloseDate,
		Pipeline:          input.Pipeline,
		AssignedTo:        input.AssignedTo,
	})
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}

	lc.fireTrigger(c, models.TriggerContactCreated, map[string]string{
		"contact_id": strconv.FormatUint(uint64(result.Contact.ID), 10),
		"email":      result.Contact.Email,
	})
	if result.Deal != nil {
		lc.fireTrigger(c, models.TriggerDealCreated, dealPayload(result.Deal))
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Lead converted", result)
}

type BulkAssignInput struct {
	LeadIDs    []uint `json:"lead_ids" validate:"required,min=1"`
	AssignedTo uint   `json:"assigned_to" validate:"required"`
}

// BulkAssign reassigns a batch of leads to one user.
func (lc *LeadController) BulkAssign(c *fiber.Ctx) error {
	t := tenantDB(c)

	var input BulkAssignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	if _, err := t.FindUserByID(c.UserContext(), input.AssignedTo); err != nil {
		return storeErrResponse(c, err, "User")
	}

	updated, err := t.BulkAssignLeads(c.UserContext(), input.LeadIDs, input.AssignedTo)
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Leads assigned", fiber.Map{
		"requested": len(input.LeadIDs),
		"updated":   updated,
	})
}

// Statistics returns lead totals grouped by status and source.
func (lc *LeadController) Statistics(c *fiber.Ctx) error {
	t := tenantDB(c)

	total, byStatus, bySource, err := t.LeadStatistics(c.UserContext())
	if err != nil {
		return storeErrResponse(c, err, "Lead")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Lead statistics retrieved", fiber.Map{
		"total":     total,
		"by_status": byStatus,
		"by_source": bySource,
	})
}

// fireTrigger enqueues matching workflow jobs. Trigger failures are logged
// and never fail the originating request.
func (lc *LeadController) fireTrigger(c *fiber.Ctx, triggerType string, payload map[string]string) {
	t := tenantDB(c)
	if err := t.TriggerWorkflows(c.UserContext(), triggerType, payload); err != nil {
		utils.LogError("workflow_trigger_failed", err, map[string]interface{}{
			"trigger": triggerType,
		})
	}
}

func leadPayload(lead *models.Lead) map[string]string {
	return map[string]string{
		"lead_id":     strconv.FormatUint(uint64(lead.ID), 10),
		"lead_number": lead.LeadNumber,
		"name":        lead.FullName(),
		"email":       lead.Email,
		"source":      lead.Source,
		"status":      lead.Status,
		"stage":       lead.Stage,
		"value":       fmt.Sprintf("%g", lead.Value),
	}
}

func dealPayload(deal *models.Deal) map[string]string {
	return map[string]string{
		"deal_id":     strconv.FormatUint(uint64(deal.ID), 10),
		"deal_number": deal.DealNumber,
		"name":        deal.Name,
		"stage":       deal.Stage,
		"pipeline":    deal.Pipeline,
		"value":       fmt.Sprintf("%g", deal.Value),
	}
}
