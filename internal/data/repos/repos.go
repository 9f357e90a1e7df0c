package repos

import (
	"gorm.io/gorm"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/assets"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/content"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/instructors"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type ImageAssetRepo = assets.ImageAssetRepo
type PdfAssetRepo = assets.PdfAssetRepo
type UploadIntentRepo = assets.UploadIntentRepo
type ImageMutation = assets.ImageMutation
type PdfMutation = assets.PdfMutation

type PageContentRepo = content.PageContentRepo

type InstructorRepo = instructors.InstructorRepo

func NewImageAssetRepo(db *gorm.DB, baseLog *logger.Logger) ImageAssetRepo {
	return assets.NewImageAssetRepo(db, baseLog)
}
func NewPdfAssetRepo(db *gorm.DB, baseLog *logger.Logger) PdfAssetRepo {
	return assets.NewPdfAssetRepo(db, baseLog)
}
func NewUploadIntentRepo(db *gorm.DB, baseLog *logger.Logger) UploadIntentRepo {
	return assets.NewUploadIntentRepo(db, baseLog)
}

func NewPageContentRepo(db *gorm.DB, baseLog *logger.Logger) PageContentRepo {
	return content.NewPageContentRepo(db, baseLog)
}

func NewInstructorRepo(db *gorm.DB, baseLog *logger.Logger) InstructorRepo {
	return instructors.NewInstructorRepo(db, baseLog)
}
