package repos

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "mebellar/internal/log"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (categories/attributes/products)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  parent_id TEXT NULL REFERENCES categories(id) ON DELETE SET NULL,
  name TEXT NOT NULL,
  icon_url TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

-- Category attribute schema (one row per attribute definition)
CREATE TABLE IF NOT EXISTS category_attributes(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  attr_key TEXT NOT NULL,
  input_type TEXT NOT NULL CHECK (input_type IN ('text','number','dropdown','switch')),
  label_uz TEXT NOT NULL,
  label_ru TEXT NOT NULL DEFAULT '',
  label_en TEXT NOT NULL DEFAULT '',
  options_json TEXT,
  is_required INTEGER NOT NULL DEFAULT 0,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_attributes_category_key ON category_attributes(category_id, attr_key);
CREATE INDEX IF NOT EXISTS idx_attributes_category_order ON category_attributes(category_id, sort_order);

-- Products (specs_json holds the sparse spec map; never touched by attribute deletes)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  specs_json TEXT NOT NULL DEFAULT '{}',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('SELLER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- 'sid' cookie or bearer token
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.L().Info("seed.demo", zap.String("what", "categories/attributes/products"))

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name,icon_url) VALUES
	  ('living-room','Yashash xonasi','https://img.icons8.com/fluency/96/living-room.png'),
	  ('bedroom','Yotoqxona','https://img.icons8.com/fluency/96/bed.png'),
	  ('kitchen','Oshxona','https://img.icons8.com/fluency/96/kitchen-room.png')`)
	tx.MustExec(`INSERT INTO categories(id,parent_id,name) VALUES
	  ('sofas','living-room','Divanlar')`)

	tx.MustExec(`INSERT INTO category_attributes(id,category_id,attr_key,input_type,label_uz,label_ru,label_en,options_json,is_required,sort_order) VALUES
	  ('attr-sofa-color','sofas','color','dropdown','Rang','Цвет','Color',
	   '[{"value":"grey","label":{"uz":"Kulrang","ru":"Серый","en":"Grey"}},{"value":"beige","label":{"uz":"Bej","ru":"Бежевый","en":"Beige"}},{"value":"green","label":{"uz":"Yashil","ru":"Зелёный","en":"Green"}}]',
	   1,0),
	  ('attr-sofa-material','sofas','material','text','Material','Материал','Material',NULL,0,1),
	  ('attr-sofa-seats','sofas','seats','number','O''rindiqlar soni','Количество мест','Seats',NULL,1,2),
	  ('attr-sofa-foldable','sofas','foldable','switch','Yig''iladigan','Раскладной','Foldable',NULL,0,3),
	  ('attr-bed-size','bedroom','size','dropdown','O''lcham','Размер','Size',
	   '[{"value":"single","label":{"uz":"Bir kishilik","ru":"Односпальная","en":"Single"}},{"value":"double","label":{"uz":"Ikki kishilik","ru":"Двуспальная","en":"Double"}}]',
	   1,0),
	  ('attr-bed-storage','bedroom','has_storage','switch','Saqlash qutisi','Ящик для хранения','Storage box',NULL,0,1)`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,price,specs_json) VALUES
	  ('sofa-001','sofas','Chester divan','Uch o''rindiqli klassik divan',5400000,'{"color":"grey","material":"velvet","seats":3,"foldable":true}'),
	  ('sofa-002','sofas','Lounge burchak divan','Burchakli yig''iladigan divan',7900000,'{"color":"beige","seats":4,"legacy_sku":"LNG-44"}'),
	  ('bed-001','bedroom','Oq karavot','Ikki kishilik karavot',3200000,'{"size":"double"}'),
	  ('kitchen-001','kitchen','Oshxona to''plami','Stol va 4 stul',2500000,'{}')`)

	return tx.Commit()
}

// seedUsers ensures one SELLER and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-seller", "seller@mebellar.test", "Seller", "SELLER", "Passw0rd!"),
		mk("u-admin", "admin@mebellar.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
