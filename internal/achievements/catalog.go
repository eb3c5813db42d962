package achievements

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
)

// Definition is a seedable catalog entry.
type Definition struct {
	Code         string
	Name         string
	NameEn       string
	Description  string
	Icon         string
	Category     string
	Points       int
	Requirements Requirements
}

const (
	CategoryBookings = "BOOKINGS"
	CategoryReviews  = "REVIEWS"
	CategoryJobs     = "JOBS"
	CategoryQuality  = "QUALITY"
	CategorySpecial  = "SPECIAL"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool        { return &v }
func strp(v string) *string     { return &v }
func technician() *string       { return strp("technician") }

func define(code, name, nameEn, description, icon, category string, points int, req Requirements) Definition {
	return Definition{
		Code:         code,
		Name:         name,
		NameEn:       nameEn,
		Description:  description,
		Icon:         icon,
		Category:     category,
		Points:       points,
		Requirements: req,
	}
}

// Catalog lists every achievement a user can unlock.
var Catalog = []Definition{
	define("WELCOME", "Bienvenido", "Welcome", "Joined the marketplace", "wave", CategorySpecial, 10,
		Requirements{}),
	define("EARLY_ADOPTER", "Pionero", "Early Adopter", "Registered during the launch year", "rocket", CategorySpecial, 250,
		Requirements{RegisteredBefore: strp("2025-12-31")}),

	define("FIRST_BOOKING_COMPLETED", "Primer servicio", "First Service", "Completed a first booking", "calendar-check", CategoryBookings, 50,
		Requirements{BookingsCompleted: intp(1)}),
	define("REGULAR_CUSTOMER", "Cliente frecuente", "Regular Customer", "Completed 5 bookings", "repeat", CategoryBookings, 100,
		Requirements{BookingsCompleted: intp(5)}),
	define("LOYAL_CUSTOMER", "Cliente leal", "Loyal Customer", "Completed 10 bookings", "heart", CategoryBookings, 200,
		Requirements{BookingsCompleted: intp(10)}),
	define("VIP_CUSTOMER", "Cliente VIP", "VIP Customer", "Completed 25 bookings", "gem", CategoryBookings, 500,
		Requirements{BookingsCompleted: intp(25)}),
	define("SUPER_CUSTOMER", "Supercliente", "Super Customer", "Completed 50 bookings", "crown", CategoryBookings, 1000,
		Requirements{BookingsCompleted: intp(50)}),

	define("FIRST_REVIEW", "Primera opinion", "First Review", "Wrote a first review", "pen", CategoryReviews, 25,
		Requirements{ReviewsWritten: intp(1)}),
	define("CRITIC", "Critico", "Critic", "Wrote 5 reviews", "message", CategoryReviews, 75,
		Requirements{ReviewsWritten: intp(5)}),
	define("TOP_REVIEWER", "Gran critico", "Top Reviewer", "Wrote 20 reviews", "megaphone", CategoryReviews, 250,
		Requirements{ReviewsWritten: intp(20)}),

	define("FIRST_JOB", "Primer trabajo", "First Job", "Completed a first job", "wrench", CategoryJobs, 50,
		Requirements{Role: technician(), JobsCompleted: intp(1)}),
	define("RELIABLE_TECH", "Tecnico confiable", "Reliable Technician", "Completed 10 jobs", "shield", CategoryJobs, 150,
		Requirements{Role: technician(), JobsCompleted: intp(10)}),
	define("SEASONED_TECH", "Tecnico experimentado", "Seasoned Technician", "Completed 50 jobs", "toolbox", CategoryJobs, 500,
		Requirements{Role: technician(), JobsCompleted: intp(50)}),
	define("VETERAN_TECH", "Tecnico veterano", "Veteran Technician", "Completed 100 jobs", "medal", CategoryJobs, 1000,
		Requirements{Role: technician(), JobsCompleted: intp(100)}),
	define("MASTER_TECH", "Maestro tecnico", "Master Technician", "Completed 250 jobs", "trophy", CategoryJobs, 2500,
		Requirements{Role: technician(), JobsCompleted: intp(250)}),

	define("FIRST_FIVE_STAR", "Primeras cinco estrellas", "First Five Stars", "Received a first five star review", "star", CategoryQuality, 50,
		Requirements{Role: technician(), FiveStarReviews: intp(1)}),
	define("FIVE_STAR_COLLECTOR", "Coleccionista de estrellas", "Star Collector", "Received 10 five star reviews", "stars", CategoryQuality, 200,
		Requirements{Role: technician(), FiveStarReviews: intp(10)}),
	define("FIVE_STAR_LEGEND", "Leyenda de cinco estrellas", "Five Star Legend", "Received 50 five star reviews", "sparkles", CategoryQuality, 750,
		Requirements{Role: technician(), FiveStarReviews: intp(50)}),
	define("HIGHLY_RATED", "Muy bien calificado", "Highly Rated", "Average rating of 4.5 over at least 10 reviews", "thumbs-up", CategoryQuality, 300,
		Requirements{Role: technician(), AverageRating: floatp(4.5), MinReviews: intp(10)}),
	define("EXCELLENCE", "Excelencia", "Excellence", "Average rating of 4.8 over at least 25 reviews", "award", CategoryQuality, 600,
		Requirements{Role: technician(), AverageRating: floatp(4.8), MinReviews: intp(25)}),
	define("PERFECT_SCORE", "Calificacion perfecta", "Perfect Score", "Perfect average over at least 5 reviews", "bullseye", CategoryQuality, 400,
		Requirements{Role: technician(), AverageRating: floatp(5.0), MinReviews: intp(5)}),

	define("VERIFIED_PRO", "Profesional verificado", "Verified Pro", "Completed technician verification", "badge-check", CategorySpecial, 100,
		Requirements{Role: technician(), IsVerified: boolp(true)}),
}

// Model converts the definition into its storage row.
func (d Definition) Model() (models.Achievement, error) {
	raw, err := json.Marshal(d.Requirements)
	if err != nil {
		return models.Achievement{}, err
	}
	return models.Achievement{
		Code:         d.Code,
		Name:         d.Name,
		NameEn:       d.NameEn,
		Description:  d.Description,
		Icon:         d.Icon,
		Category:     d.Category,
		Points:       d.Points,
		Requirements: datatypes.JSON(raw),
	}, nil
}
