package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250601-093000",
		Description: "Initial schema: users, payments, images, likes, comments, follows",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				avatar_url TEXT NOT NULL DEFAULT '',
				credits INTEGER NOT NULL DEFAULT 20,
				plan TEXT NOT NULL DEFAULT 'free',
				is_active INTEGER NOT NULL DEFAULT 1,
				email_verified INTEGER NOT NULL DEFAULT 0,
				images_generated INTEGER NOT NULL DEFAULT 0,
				credits_spent INTEGER NOT NULL DEFAULT 0,
				followers_count INTEGER NOT NULL DEFAULT 0,
				following_count INTEGER NOT NULL DEFAULT 0,
				last_login_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

			// Payments table - gateway_intent_id is UNIQUE so one intent maps
			// to exactly one record; the succeeded transition is a conditional
			// update on (gateway_intent_id, status='pending').
			`CREATE TABLE IF NOT EXISTS payments (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				gateway_intent_id TEXT NOT NULL UNIQUE,
				amount_minor INTEGER NOT NULL,
				currency TEXT NOT NULL DEFAULT 'usd',
				status TEXT NOT NULL DEFAULT 'pending',
				credits_to_grant INTEGER NOT NULL,
				plan_id TEXT NOT NULL,
				plan_name TEXT NOT NULL,
				webhook_confirmed INTEGER NOT NULL DEFAULT 0,
				processed_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_user_created ON payments(user_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,

			`CREATE TABLE IF NOT EXISTS images (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				url TEXT NOT NULL,
				prompt TEXT NOT NULL,
				negative_prompt TEXT NOT NULL DEFAULT '',
				style TEXT NOT NULL DEFAULT '',
				width INTEGER NOT NULL,
				height INTEGER NOT NULL,
				seed INTEGER NOT NULL DEFAULT 0,
				model TEXT NOT NULL DEFAULT '',
				shared INTEGER NOT NULL DEFAULT 0,
				likes_count INTEGER NOT NULL DEFAULT 0,
				comments_count INTEGER NOT NULL DEFAULT 0,
				storage_key TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_images_user_created ON images(user_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_images_shared_created ON images(shared, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_images_shared_likes ON images(shared, likes_count)`,

			`CREATE TABLE IF NOT EXISTS likes (
				image_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				created_at TEXT NOT NULL,
				PRIMARY KEY (image_id, user_id),
				FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,

			`CREATE TABLE IF NOT EXISTS comments (
				id TEXT PRIMARY KEY,
				image_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				body TEXT NOT NULL,
				created_at TEXT NOT NULL,
				FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_comments_image_created ON comments(image_id, created_at)`,

			`CREATE TABLE IF NOT EXISTS follows (
				follower_id TEXT NOT NULL,
				followee_id TEXT NOT NULL,
				created_at TEXT NOT NULL,
				PRIMARY KEY (follower_id, followee_id),
				FOREIGN KEY (follower_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (followee_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
		},
	})
}
