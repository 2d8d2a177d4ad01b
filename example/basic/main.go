package main

import (
	"context"
	"fmt"
	"log"

	recommender "github.com/vijayakrishna12345/fitness-tracker"
	"github.com/vijayakrishna12345/fitness-tracker/embed/local"
	"github.com/vijayakrishna12345/fitness-tracker/helper"
	"github.com/vijayakrishna12345/fitness-tracker/model"
	"github.com/vijayakrishna12345/fitness-tracker/sql"
	"github.com/vijayakrishna12345/fitness-tracker/store/pgvector"
	"github.com/vijayakrishna12345/fitness-tracker/store/storetest"
)

const embeddingDim = 384

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container for the vector index
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	dbConfig := &helper.PostgresConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "recommender_test",
		Username: "postgres",
		Password: "postgres",
		Schema:   "public",
	}
	db, err := helper.NewDatabase(dbConfig, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := sql.Init(db.Instance); err != nil {
		log.Fatalf("Failed to initialize database extensions: %v", err)
	}

	vector, err := pgvector.NewIndex(db, embeddingDim, false)
	if err != nil {
		log.Fatalf("Failed to create vector index: %v", err)
	}

	// In-memory relationship graph keeps the example self-contained;
	// swap in store/neo4j.NewGraph for a real deployment.
	graph := storetest.NewFakeGraphStore()

	// Local embeddings with the all-MiniLM-L6-v2 model (384 dimensions)
	embedder, err := local.NewProvider("sentence-transformers/all-MiniLM-L6-v2")
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer embedder.Close()

	r := recommender.New(vector, graph, embedder, model.DefaultEngineConfig())

	// Ingest a few recommendations
	fmt.Println("Ingesting recommendations...")
	items := []*model.Recommendation{
		{
			ID:       "squat-program",
			Title:    "Beginner squat program",
			Content:  "Three sessions per week of back squats with linear progression.",
			Category: "strength",
			Tags:     []string{"legs", "barbell"},
		},
		{
			ID:       "hip-mobility",
			Title:    "Hip mobility routine",
			Content:  "Daily hip openers and deep squat holds to improve squat depth.",
			Category: "mobility",
			Tags:     []string{"legs", "recovery"},
		},
		{
			ID:       "zone2-running",
			Title:    "Zone 2 base running",
			Content:  "Easy conversational-pace runs to build an aerobic base.",
			Category: "cardio",
			Tags:     []string{"running", "endurance"},
		},
	}
	ids, err := r.IngestMany(ctx, items)
	if err != nil {
		log.Fatalf("Failed to ingest: %v", err)
	}
	fmt.Printf("Ingested %d recommendations\n", len(ids))

	// Link the mobility work to the squat program
	err = r.CreateRelationship(ctx, "squat-program", model.RelationshipInput{
		TargetID: "hip-mobility",
		Type:     "complements",
		Weight:   0.8,
	})
	if err != nil {
		log.Fatalf("Failed to create relationship: %v", err)
	}

	// Hybrid recommendation: vector similarity fused with graph edges
	query := "how do I get stronger legs?"
	fmt.Printf("\nQuerying: %s\n", query)

	results, err := r.Recommend(ctx, query, "", nil, 3)
	if err != nil {
		log.Fatalf("Failed to recommend: %v", err)
	}
	for i, result := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Title: %s\n", result.Title)
		fmt.Printf("Vector score: %.4f\n", result.VectorScore)
		fmt.Printf("Graph score: %.4f\n", result.GraphScore)
		fmt.Printf("Final score: %.4f\n", result.FinalScore)
	}

	// Cluster discovery around the squat program
	members, err := r.Cluster(ctx, "squat-program", 0.7, 0.5, 2)
	if err != nil {
		log.Fatalf("Failed to cluster: %v", err)
	}
	fmt.Printf("\nCluster around squat-program (%d members):\n", len(members))
	for _, member := range members {
		fmt.Printf("  %s (cluster score %.2f, path %v)\n", member.ID, member.ClusterScore, member.Path)
	}

	// The user implemented the squat program; reinforce its edges
	if err := r.RecordFeedback(ctx, "squat-program", true, "added 20kg to my squat"); err != nil {
		log.Fatalf("Failed to record feedback: %v", err)
	}
	fmt.Printf("\nEdge squat-program -> hip-mobility after feedback: %.2f\n",
		graph.EdgeWeight("squat-program", "hip-mobility"))

	fmt.Println("\nBasic example completed successfully!")
}
