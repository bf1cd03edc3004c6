package models

import (
	"log"

	"bitbucket.org/mmdatafocus/records_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Company{}, &Brand{}, &Branch{}, &Person{},
		&FinancialRecord{},
		&Contract{}, &PromissoryNote{},
		&Report{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
