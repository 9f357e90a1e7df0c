package domain

import (
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain/assets"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain/content"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain/instructors"
)

const (
	InstructorStatusAvailable = instructors.StatusAvailable
	InstructorStatusFull      = instructors.StatusFull

	ContentMainField = content.MainField

	UploadCategoryImage    = assets.CategoryImage
	UploadCategoryDocument = assets.CategoryDocument
)

type ImageAsset = assets.ImageAsset
type PdfAsset = assets.PdfAsset
type PdfEntry = assets.PdfEntry
type UploadIntent = assets.UploadIntent
type PageContent = content.PageContent
type Instructor = instructors.Instructor
