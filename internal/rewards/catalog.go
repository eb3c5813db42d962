package rewards

import (
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
)

// Definition is a catalog reward keyed by Code. A nil Stock is unlimited.
type Definition struct {
	Code        string
	Name        string
	Description string
	Category    enums.RewardCategory
	PointsCost  int
	Stock       *int
}

func limited(n int) *int { return &n }

// Catalog is the reward set seeded into every environment.
var Catalog = []Definition{
	{
		Code:        "PRIORITY_BOOKING",
		Name:        "Reserva prioritaria",
		Description: "Tu siguiente solicitud aparece primero para los técnicos.",
		Category:    enums.RewardCategoryPriority,
		PointsCost:  400,
	},
	{
		Code:        "DISCOUNT_10",
		Name:        "10% de descuento",
		Description: "Descuento del 10% en tu próximo servicio.",
		Category:    enums.RewardCategoryDiscount,
		PointsCost:  500,
	},
	{
		Code:        "FREE_DIAGNOSIS",
		Name:        "Diagnóstico gratis",
		Description: "Una visita de diagnóstico sin costo.",
		Category:    enums.RewardCategoryService,
		PointsCost:  800,
	},
	{
		Code:        "DISCOUNT_25",
		Name:        "25% de descuento",
		Description: "Descuento del 25% en tu próximo servicio.",
		Category:    enums.RewardCategoryDiscount,
		PointsCost:  1200,
	},
	{
		Code:        "SERVICEHUB_TSHIRT",
		Name:        "Playera ServiceHub",
		Description: "Playera oficial enviada a tu domicilio.",
		Category:    enums.RewardCategoryMerch,
		PointsCost:  1500,
		Stock:       limited(100),
	},
	{
		Code:        "FREE_SERVICE",
		Name:        "Servicio gratis",
		Description: "Un servicio estándar de hasta $500 MXN sin costo.",
		Category:    enums.RewardCategoryService,
		PointsCost:  3000,
		Stock:       limited(50),
	},
}

// Model converts the definition into an active catalog row.
func (d Definition) Model() models.Reward {
	row := models.Reward{
		Code:        d.Code,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		PointsCost:  d.PointsCost,
		IsActive:    true,
	}
	if d.Stock != nil {
		stock := *d.Stock
		row.Stock = &stock
	}
	return row
}
