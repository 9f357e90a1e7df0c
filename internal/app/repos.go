package app

import (
	"gorm.io/gorm"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type Repos struct {
	Images      repos.ImageAssetRepo
	Pdfs        repos.PdfAssetRepo
	Intents     repos.UploadIntentRepo
	Content     repos.PageContentRepo
	Instructors repos.InstructorRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Images:      repos.NewImageAssetRepo(db, log),
		Pdfs:        repos.NewPdfAssetRepo(db, log),
		Intents:     repos.NewUploadIntentRepo(db, log),
		Content:     repos.NewPageContentRepo(db, log),
		Instructors: repos.NewInstructorRepo(db, log),
	}
}
