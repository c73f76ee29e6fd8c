// Command seed fills the local test database with books and loans, some of them overdue,
// so the overdue notifier has something to do. It truncates both tables first.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/lending/service"
)

const (
	// NumBooks - Number of books to be created - adapt as needed.
	NumBooks = 200

	// LoanShare - Share of books that get an active loan.
	LoanShare = 0.6

	// OverdueShare - Share of active loans that are older than the overdue threshold.
	OverdueShare = 0.25

	// NumCustomers - Number of distinct customers the loans are spread across.
	NumCustomers = 40
)

var titleWords = []string{
	"Silent", "River", "Empire", "Garden", "Shadow", "Winter", "Letters", "Machine", "Harbor", "Orbit",
}

// discardNotifier satisfies the loan service, seeding never notifies.
type discardNotifier struct{}

func (discardNotifier) Send(context.Context, string, []string) error { return nil }

func main() {
	if err := seed(context.Background()); err != nil {
		log.Fatalf("Error seeding data: %v", err)
	}
}

func seed(ctx context.Context) error {
	startTime := time.Now()

	fmt.Println("🚀 Seeding library test database")

	pool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolTestConfig())
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	engine, err := postgresengine.NewEngineFromPGXPool(pool)
	if err != nil {
		return err
	}

	fmt.Printf("🏗️\tMigrating schema...")
	if err = engine.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	fmt.Println(" ✅")

	fmt.Printf("🗑️\tTruncating tables...")
	if _, err = pool.Exec(ctx, "TRUNCATE TABLE loans, books RESTART IDENTITY"); err != nil {
		return fmt.Errorf("failed to truncate: %w", err)
	}
	fmt.Println(" ✅")

	books, err := service.NewBookService(engine.Books())
	if err != nil {
		return err
	}

	loans, err := service.NewLoanService(engine.Loans(), discardNotifier{})
	if err != nil {
		return err
	}

	today := lending.ToLoanDate(time.Now())
	overdueBefore := today.AddDate(0, 0, -service.DefaultOverdueThresholdDays)

	var loanCount, overdueCount int

	fmt.Printf("📚\tCreating %d books with loans...", NumBooks)

	for i := 0; i < NumBooks; i++ {
		book, saveErr := books.Save(ctx, lending.BuildBook(randomTitle(), fmt.Sprintf("Author %d", i%25), isbn(i)))
		if saveErr != nil {
			return fmt.Errorf("failed to save book %d: %w", i, saveErr)
		}

		if rand.Float64() >= LoanShare {
			continue
		}

		loanDate := today.AddDate(0, 0, -rand.Intn(service.DefaultOverdueThresholdDays+1))
		if rand.Float64() < OverdueShare {
			loanDate = overdueBefore.AddDate(0, 0, -1-rand.Intn(30))
			overdueCount++
		}

		customer := rand.Intn(NumCustomers)

		_, saveErr = loans.Save(ctx, lending.BuildLoan(
			book,
			fmt.Sprintf("Customer %d", customer),
			fmt.Sprintf("customer%d@example.com", customer),
			loanDate,
		))
		if saveErr != nil {
			return fmt.Errorf("failed to save loan for book %d: %w", book.ID, saveErr)
		}

		loanCount++
	}

	fmt.Println(" ✅")
	fmt.Printf("📊\t%d books, %d loans, %d overdue (threshold %s)\n",
		NumBooks, loanCount, overdueCount, overdueBefore.Format("2006-01-02"))
	fmt.Printf("⏱️\tDone in %s\n", time.Since(startTime).Round(time.Millisecond))

	return nil
}

func randomTitle() string {
	return titleWords[rand.Intn(len(titleWords))] + " " + titleWords[rand.Intn(len(titleWords))]
}

// isbn builds a unique, ISBN-13 shaped identifier.
func isbn(i int) string {
	return fmt.Sprintf("978%010d", i)
}
