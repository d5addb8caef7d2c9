package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250601-000000",
		Description: "Initial schema",
		Up: []string{
			// Jobs - extraction requests, also serving as the durable work queue
			`CREATE TABLE IF NOT EXISTS jobs (
				id TEXT PRIMARY KEY,
				url TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'queued',
				progress INTEGER NOT NULL DEFAULT 0,
				product_id TEXT REFERENCES products(id) ON DELETE SET NULL,
				metadata_json TEXT,
				error_message TEXT,
				started_at TEXT,
				completed_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
			`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`,

			// Products - one row per distinct source URL
			// The unique constraint resolves concurrent first-extraction races
			// to a single winning row
			`CREATE TABLE IF NOT EXISTS products (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT,
				url TEXT UNIQUE NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_products_url ON products(url)`,

			// Variants - replaced as a full set on each re-extraction
			// position preserves extraction order for deterministic tie-breaks
			`CREATE TABLE IF NOT EXISTS variants (
				id TEXT PRIMARY KEY,
				product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				quantity_text TEXT,
				quantity_numeric REAL,
				price_cents INTEGER NOT NULL DEFAULT 0,
				currency TEXT NOT NULL DEFAULT 'USD',
				price_per_unit INTEGER,
				position INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_variants_product_id ON variants(product_id)`,
		},
	})
}
