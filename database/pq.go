package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/Basavaraj-fidelis/train-track-sub000/config"
	_ "github.com/lib/pq"
)

const maxConnectAttempts = 6

// WaitForDatabase pings PostgreSQL through the raw pq driver, retrying with
// exponential backoff. This is the only retry loop in the system; once the
// process is up, storage errors surface directly to callers.
func WaitForDatabase() error {
	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	backoff := time.Second
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		if err = db.Ping(); err == nil {
			log.Println("PostgreSQL is reachable.")
			return nil
		}

		if attempt == maxConnectAttempts {
			break
		}

		log.Printf("PostgreSQL not ready (attempt %d/%d): %v. Retrying in %s...",
			attempt, maxConnectAttempts, err, backoff)
		time.Sleep(backoff)
		backoff *= 2
	}

	return fmt.Errorf("database unreachable after %d attempts: %w", maxConnectAttempts, err)
}
