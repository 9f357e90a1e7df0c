package handlers

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/response"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

const maxContentBodyBytes = 1 << 20

type ContentHandler struct {
	content services.ContentService
}

func NewContentHandler(content services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

type contentBody struct {
	Content any `json:"content"`
}

// GET /api/content/:page
func (h *ContentHandler) GetContent(c *gin.Context) {
	fields, err := h.content.GetContent(c.Request.Context(), c.Param("page"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"content": fields})
}

// GET /api/content/:page/:field
func (h *ContentHandler) GetField(c *gin.Context) {
	text, err := h.content.GetField(c.Request.Context(), c.Param("page"), c.Param("field"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"field": c.Param("field"), "content": text})
}

// POST /api/content/:page
func (h *ContentHandler) SaveContent(c *gin.Context) {
	body, err := decodeContentBody(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	fields, err := h.content.SaveContent(c.Request.Context(), c.Param("page"), body.Content)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Content saved", "content": fields})
}

// PUT /api/content/:page/:field
func (h *ContentHandler) SaveField(c *gin.Context) {
	body, err := decodeContentBody(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	text, ok := body.Content.(string)
	if !ok {
		response.RespondErr(c, apierr.BadRequest("content must be a string"))
		return
	}
	fields, err := h.content.SaveField(c.Request.Context(), c.Param("page"), c.Param("field"), text)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Content saved", "content": fields})
}

func decodeContentBody(c *gin.Context) (contentBody, error) {
	var body contentBody
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, maxContentBodyBytes))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return body, apierr.BadRequest("request body is required")
		}
		return body, apierr.BadRequest("invalid JSON body")
	}
	return body, nil
}
