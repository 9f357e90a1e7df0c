package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/response"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

type InstructorHandler struct {
	instructors services.InstructorService
}

func NewInstructorHandler(instructors services.InstructorService) *InstructorHandler {
	return &InstructorHandler{instructors: instructors}
}

// GET /api/instructors/:page
func (h *InstructorHandler) List(c *gin.Context) {
	list, err := h.instructors.List(c.Request.Context(), c.Param("page"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"instructors": list})
}

// POST /api/instructors/:page
func (h *InstructorHandler) Create(c *gin.Context) {
	var req services.CreateInstructorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, apierr.BadRequest("invalid request body"))
		return
	}
	inst, err := h.instructors.Create(c.Request.Context(), c.Param("page"), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, inst)
}

// PUT /api/instructors/:page/:id
func (h *InstructorHandler) Update(c *gin.Context) {
	var req services.UpdateInstructorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, apierr.BadRequest("invalid request body"))
		return
	}
	inst, err := h.instructors.Update(c.Request.Context(), c.Param("page"), c.Param("id"), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, inst)
}

// PATCH /api/instructors/:page/:id/toggle
func (h *InstructorHandler) Toggle(c *gin.Context) {
	inst, err := h.instructors.Toggle(c.Request.Context(), c.Param("page"), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, inst)
}

// DELETE /api/instructors/:page/:id
func (h *InstructorHandler) Remove(c *gin.Context) {
	if err := h.instructors.Remove(c.Request.Context(), c.Param("page"), c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Instructor removed"})
}
