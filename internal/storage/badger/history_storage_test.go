package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/models"
)

func TestDeckStorageSaveAndHistory(t *testing.T) {
	db := openTestStore(t)
	storage := NewDeckStorage(db, arbor.NewLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		deck := &models.Deck{
			ID:    fmt.Sprintf("deck-%d", i),
			Topic: fmt.Sprintf("Topic %d", i),
			Cards: []models.Flashcard{
				{Front: "question?", Back: "answer", Topic: fmt.Sprintf("Topic %d", i)},
			},
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}
		if err := storage.SaveDeck(ctx, deck); err != nil {
			t.Fatalf("Failed to save deck: %v", err)
		}
	}

	history, err := storage.GetDeckHistory(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Fatalf("Expected 3 decks, got %d", len(history))
	}
	if history[0].ID != "deck-2" {
		t.Errorf("Expected newest deck first, got %s", history[0].ID)
	}
	if len(history[0].Cards) != 1 {
		t.Errorf("Expected cards preserved, got %d", len(history[0].Cards))
	}

	limited, err := storage.GetDeckHistory(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 decks with limit, got %d", len(limited))
	}
}

func TestQuizStorageSaveAndHistory(t *testing.T) {
	db := openTestStore(t)
	storage := NewQuizStorage(db, arbor.NewLogger())
	ctx := context.Background()

	result := &models.QuizResult{
		ID:    "quiz-1",
		Topic: "Go",
		Questions: []models.QuizQuestion{
			{Question: "q?", Options: []string{"True", "False"}, CorrectAnswer: "True"},
		},
		Score:     8,
		Total:     10,
		CreatedAt: time.Now(),
	}
	if err := storage.SaveQuizResult(ctx, result); err != nil {
		t.Fatalf("Failed to save quiz result: %v", err)
	}

	history, err := storage.GetQuizHistory(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(history))
	}
	if history[0].Score != 8 || history[0].Total != 10 {
		t.Errorf("Expected score 8/10, got %d/%d", history[0].Score, history[0].Total)
	}
}

func TestMetricStorageAppendAndList(t *testing.T) {
	db := openTestStore(t)
	storage := NewMetricStorage(db, arbor.NewLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		metric := &models.GenerationMetric{
			ID:        fmt.Sprintf("metric-%d", i),
			Topic:     "Go",
			CardCount: 5,
			Success:   i != 1,
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := storage.AppendMetric(ctx, metric); err != nil {
			t.Fatalf("Failed to append metric: %v", err)
		}
	}

	metrics, err := storage.ListMetrics(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 3 {
		t.Fatalf("Expected 3 metrics, got %d", len(metrics))
	}
	if metrics[0].ID != "metric-2" {
		t.Errorf("Expected newest metric first, got %s", metrics[0].ID)
	}

	limited, err := storage.ListMetrics(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 metric with limit, got %d", len(limited))
	}
}
