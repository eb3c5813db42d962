package models

import "gorm.io/datatypes"

// Level is one band of the leveling ladder. A nil MaxPoints marks the open top band.
type Level struct {
	LevelNumber int            `gorm:"column:level_number;primaryKey;autoIncrement:false"`
	Name        string         `gorm:"column:name;not null"`
	NameEn      string         `gorm:"column:name_en;not null"`
	MinPoints   int            `gorm:"column:min_points;not null"`
	MaxPoints   *int           `gorm:"column:max_points"`
	Perks       datatypes.JSON `gorm:"column:perks;type:jsonb"`
}
