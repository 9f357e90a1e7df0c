package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/response"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

type AssetHandler struct {
	assets         services.AssetService
	maxUploadBytes int64
}

func NewAssetHandler(assets services.AssetService, maxUploadBytes int64) *AssetHandler {
	return &AssetHandler{assets: assets, maxUploadBytes: maxUploadBytes}
}

// GET /api/assets/images?page=
func (h *AssetHandler) ListImages(c *gin.Context) {
	urls, err := h.assets.ListImages(c.Request.Context(), scopedParam(c, "Page"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"images": urls})
}

// POST /api/assets/images
func (h *AssetHandler) UploadImage(c *gin.Context) {
	file, err := readUpload(c, "image", h.maxUploadBytes)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	url, err := h.assets.UploadImage(c.Request.Context(), scopedParam(c, "Page"), scopedParam(c, "Section"), file)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}

// DELETE /api/assets/images
func (h *AssetHandler) DeleteImage(c *gin.Context) {
	if err := h.assets.DeleteImage(c.Request.Context(), scopedParam(c, "Page"), scopedParam(c, "Url")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Image deleted"})
}

// GET /api/assets/pdfs?page=&section=
func (h *AssetHandler) ListPdfs(c *gin.Context) {
	entries, err := h.assets.ListPdfs(c.Request.Context(), scopedParam(c, "Page"), scopedParam(c, "Section"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.OriginalName)
	}
	response.RespondOK(c, gin.H{"pdfs": entries, "filenames": names})
}

// POST /api/assets/pdfs
func (h *AssetHandler) UploadPdf(c *gin.Context) {
	file, err := readUpload(c, "pdf", h.maxUploadBytes)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	entry, err := h.assets.UploadPdf(c.Request.Context(), scopedParam(c, "Page"), scopedParam(c, "Section"), file)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url": entry.URL, "section": entry.Section, "originalName": entry.OriginalName})
}

// DELETE /api/assets/pdfs
func (h *AssetHandler) DeletePdf(c *gin.Context) {
	if err := h.assets.DeletePdf(c.Request.Context(), scopedParam(c, "Page"), scopedParam(c, "Url")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "PDF deleted"})
}
