package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed recommendations.sql
var recommendationsSQL string

// Function list for verification
var RecommendationsFunctions = []string{
	"init_recommendations",
	"upsert_recommendation",
	"select_recommendation",
	"select_recommendations_by_similarity",
	"patch_recommendation_metadata",
	"delete_recommendation",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadRecommendationsSql loads recommendation-related SQL functions
func LoadRecommendationsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, RecommendationsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing recommendations functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(recommendationsSQL)
	if err != nil {
		return fmt.Errorf("error executing recommendations SQL: %w", err)
	}

	exist, err := checkFunctions(db, RecommendationsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL recommendations functions loaded successfully")
	return nil
}

func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
