package eeprom

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDevice keeps one row per written cell. Cells without a row read as
// erased.
type SQLiteDevice struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	size   int
}

// OpenSQLiteDevice opens or creates the database at dbPath
func OpenSQLiteDevice(dbPath string, size int) (*SQLiteDevice, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if dbPath == "" {
		dbPath = "./micro26.db"
	}

	d := &SQLiteDevice{dbPath: dbPath, size: size}
	if err := d.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite eeprom: %w", err)
	}
	return d, nil
}

// initialize sets up the database connection and creates tables
func (d *SQLiteDevice) initialize() error {
	if err := os.MkdirAll(filepath.Dir(d.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	connectionString := d.dbPath + "?_busy_timeout=10000&_journal_mode=WAL"

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	d.db = db

	if err := d.createTables(); err != nil {
		db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("EEPROM store initialized: %s (%d bytes)", d.dbPath, d.size)
	return nil
}

// createTables creates the database schema
func (d *SQLiteDevice) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cells (
		address INTEGER PRIMARY KEY CHECK (address >= 0),
		value INTEGER NOT NULL CHECK (value BETWEEN 0 AND 255),
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// ReadAt reads n cells
func (d *SQLiteDevice) ReadAt(offset, n int) ([]byte, error) {
	if err := checkRange(d, offset, n); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := make([]byte, n)
	for i := range buf {
		buf[i] = Erased
	}

	rows, err := d.db.Query(
		"SELECT address, value FROM cells WHERE address >= ? AND address < ?",
		offset, offset+n)
	if err != nil {
		return nil, fmt.Errorf("failed to query cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var address, value int
		if err := rows.Scan(&address, &value); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		buf[address-offset] = byte(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cells: %w", err)
	}
	return buf, nil
}

// WriteAt writes all cells in one transaction
func (d *SQLiteDevice) WriteAt(offset int, data []byte) error {
	if err := checkRange(d, offset, len(data)); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO cells (address, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(address) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare write: %w", err)
	}
	defer stmt.Close()

	for i, b := range data {
		if _, err := stmt.Exec(offset+i, int(b)); err != nil {
			return fmt.Errorf("failed to write cell %d: %w", offset+i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit write: %w", err)
	}
	return nil
}

// Size returns the capacity in bytes
func (d *SQLiteDevice) Size() int {
	return d.size
}

// Close closes the database
func (d *SQLiteDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}
