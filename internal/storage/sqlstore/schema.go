package sqlstore

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		genre TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL,
		image TEXT NOT NULL,
		title TEXT NOT NULL,
		subtitle TEXT NOT NULL,
		publisher TEXT NOT NULL,
		"year" TEXT NOT NULL,
		pages INTEGER NOT NULL CHECK (pages >= 0),
		isbn TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_books_isbn ON books (isbn)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		birth_date TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER'
	)`,
	`CREATE TABLE IF NOT EXISTS users_books (
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		book_id INTEGER NOT NULL REFERENCES books (id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, book_id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id BIGSERIAL PRIMARY KEY,
		genre TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL,
		image TEXT NOT NULL,
		title TEXT NOT NULL,
		subtitle TEXT NOT NULL,
		publisher TEXT NOT NULL,
		"year" TEXT NOT NULL,
		pages INTEGER NOT NULL CHECK (pages >= 0),
		isbn TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_books_isbn ON books (isbn)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		birth_date TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER'
	)`,
	`CREATE TABLE IF NOT EXISTS users_books (
		user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		book_id BIGINT NOT NULL REFERENCES books (id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, book_id)
	)`,
}
