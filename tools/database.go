// tools/database.go
package tools

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	_ "github.com/mattn/go-sqlite3"
)

// DatabaseTool runs read-only queries against a SQLite database
type DatabaseTool struct {
	db      *sql.DB
	schemas map[string]TableSchema
}

// TableSchema represents a database table schema
type TableSchema struct {
	Name    string
	Columns []ColumnSchema
}

// ColumnSchema represents a database column schema
type ColumnSchema struct {
	Name string
	Type string
}

// NewDatabaseTool creates a new database tool instance
func NewDatabaseTool(dbPath string) (*DatabaseTool, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tool := &DatabaseTool{
		db:      db,
		schemas: make(map[string]TableSchema),
	}

	if err := tool.loadSchemas(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	return tool, nil
}

// loadSchemas reads the database schema
func (t *DatabaseTool) loadSchemas() error {
	rows, err := t.db.Query(`
        SELECT name FROM sqlite_master
        WHERE type='table' AND name NOT LIKE 'sqlite_%'
    `)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range names {
		schema, err := t.getTableSchema(name)
		if err != nil {
			return fmt.Errorf("failed to get schema for %s: %w", name, err)
		}
		t.schemas[name] = schema
	}
	return nil
}

// getTableSchema reads the schema for a specific table
func (t *DatabaseTool) getTableSchema(tableName string) (TableSchema, error) {
	schema := TableSchema{Name: tableName}

	rows, err := t.db.Query(fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return schema, fmt.Errorf("failed to get table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             interface{}
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return schema, fmt.Errorf("failed to scan column info: %w", err)
		}
		schema.Columns = append(schema.Columns, ColumnSchema{Name: name, Type: typ})
	}

	return schema, rows.Err()
}

// Tables returns the known table names, sorted
func (t *DatabaseTool) Tables() []string {
	names := make([]string, 0, len(t.schemas))
	for name := range t.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetToolSpec returns the MCP tool descriptor
func (t *DatabaseTool) GetToolSpec() mcp.Tool {
	var desc strings.Builder
	for _, name := range t.Tables() {
		fmt.Fprintf(&desc, "\nTable %s:\n", name)
		for _, col := range t.schemas[name].Columns {
			fmt.Fprintf(&desc, "  - %s (%s)\n", col.Name, col.Type)
		}
	}

	return mcp.Tool{
		Name:        "query_database",
		Description: "Execute a read-only SQL query against the SQLite database. Available schemas: " + desc.String(),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "SQL SELECT query to execute",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs a SQL query and returns one map per row
func (t *DatabaseTool) Execute(params map[string]interface{}) (interface{}, error) {
	query, ok := params["query"].(string)
	if !ok {
		return nil, fmt.Errorf("query parameter is required")
	}

	if err := validateQuery(query); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	rows, err := t.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := []map[string]interface{}{}
	values := make([]interface{}, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// validateQuery accepts a single SELECT (or WITH ... SELECT) statement
func validateQuery(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if strings.Contains(q, ";") {
		return fmt.Errorf("only one statement is allowed")
	}

	fields := strings.Fields(strings.ToLower(q))
	if len(fields) == 0 {
		return fmt.Errorf("query is empty")
	}
	if fields[0] != "select" && fields[0] != "with" {
		return fmt.Errorf("only SELECT queries are allowed")
	}
	return nil
}

// Close releases database resources
func (t *DatabaseTool) Close() error {
	return t.db.Close()
}

// SeedExampleDB creates the users and orders tables used by the demos
func SeedExampleDB(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT UNIQUE
        );

        CREATE TABLE IF NOT EXISTS orders (
            id INTEGER PRIMARY KEY,
            user_id INTEGER,
            product TEXT NOT NULL,
            price DECIMAL(10,2),
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (user_id) REFERENCES users(id)
        );
    `)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	_, err = db.Exec(`
        INSERT OR IGNORE INTO users (id, name, email) VALUES
        (1, 'Alice Smith', 'alice@example.com'),
        (2, 'Bob Jones', 'bob@example.com'),
        (3, 'Carol White', 'carol@example.com');

        INSERT OR IGNORE INTO orders (id, user_id, product, price) VALUES
        (1, 1, 'Laptop', 999.99),
        (2, 1, 'Mouse', 29.99),
        (3, 2, 'Keyboard', 89.99),
        (4, 3, 'Monitor', 299.99);
    `)
	if err != nil {
		return fmt.Errorf("failed to insert sample data: %w", err)
	}
	return nil
}
