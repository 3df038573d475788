package wordstore

// Ported directly from debias/core/wordstore.py's Wordstore: same
// table DDL and the same insert-document, upsert-keyword,
// upsert-topic, upsert-appearance sequence inside one transaction.

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTablesSQL = `
create table if not exists targets (
	id text not null primary key,
	name text not null,
	main_page text not null,
	country text not null,
	alignment text not null
);
create table if not exists documents (
	id serial primary key,
	title text not null,
	absolute_url text not null,
	url_hash text not null,
	target_id text not null references targets(id),
	scrape_datetime timestamp not null,
	article_datetime timestamp,
	snippet text not null
);
create table if not exists keywords (
	id serial primary key,
	type text not null,
	keyword text not null,
	count int not null
);
create unique index if not exists keywords_type_keyword on keywords(type, keyword);
create table if not exists topics (
	id serial primary key,
	type text not null,
	topic text not null,
	count int not null
);
create unique index if not exists topics_type_topic on topics(type, topic);
create table if not exists keyword_appearances (
	keyword_id int references keywords(id),
	document_id int references documents(id),
	count int,
	primary key (keyword_id, document_id)
);
create table if not exists topic_appearances (
	topic_id int references topics(id),
	document_id int references documents(id),
	count int,
	primary key (topic_id, document_id)
);`

// PgStore is the production Store backed by Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

// Open connects to connString and returns a ready-to-migrate PgStore.
func Open(ctx context.Context, connString string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("wordstore: connect: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

// Init creates the analytics tables if they do not already exist.
func (s *PgStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createTablesSQL)
	return err
}

// Close releases the underlying connection pool.
func (s *PgStore) Close() {
	s.pool.Close()
}

const upsertTargetSQL = `
insert into targets (id, name, main_page, country, alignment)
values ($1, $2, $3, $4, $5)
on conflict (id) do nothing;`

func (s *PgStore) SeedTargets(ctx context.Context, targets []TargetDimension) error {
	for _, t := range targets {
		if _, err := s.pool.Exec(ctx, upsertTargetSQL, t.ID, t.Name, t.MainPage, t.Country, t.Alignment); err != nil {
			return fmt.Errorf("wordstore: seed target %q: %w", t.ID, err)
		}
	}
	return nil
}

const insertDocumentSQL = `
insert into documents (title, absolute_url, url_hash, target_id, scrape_datetime, article_datetime, snippet)
values ($1, $2, $3, $4, $5, $6, $7)
returning id;`

const upsertKeywordSQL = `
insert into keywords (type, keyword, count) values ($1, $2, 1)
on conflict (type, keyword) do update set count = keywords.count + 1
returning id;`

const upsertTopicSQL = `
insert into topics (type, topic, count) values ($1, $2, 1)
on conflict (type, topic) do update set count = topics.count + 1
returning id;`

const upsertKeywordAppearanceSQL = `
insert into keyword_appearances (keyword_id, document_id, count)
values ($1, $2, 1)
on conflict (keyword_id, document_id) do update set count = keyword_appearances.count + 1;`

const upsertTopicAppearanceSQL = `
insert into topic_appearances (topic_id, document_id, count)
values ($1, $2, 1)
on conflict (topic_id, document_id) do update set count = topic_appearances.count + 1;`

func (s *PgStore) Save(ctx context.Context, result ProcessingResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("wordstore: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var documentID int64
	row := tx.QueryRow(ctx, insertDocumentSQL,
		result.Title, result.AbsoluteURL, result.URLHash, result.TargetID,
		result.ScrapeDatetime, result.ArticleDatetime, result.Snippet,
	)
	if err := row.Scan(&documentID); err != nil {
		return fmt.Errorf("wordstore: insert document: %w", err)
	}

	for _, kw := range result.Keywords {
		var keywordID int64
		if err := tx.QueryRow(ctx, upsertKeywordSQL, kw.Type, kw.Text).Scan(&keywordID); err != nil {
			return fmt.Errorf("wordstore: upsert keyword %q: %w", kw.Text, err)
		}
		if _, err := tx.Exec(ctx, upsertKeywordAppearanceSQL, keywordID, documentID); err != nil {
			return fmt.Errorf("wordstore: upsert keyword appearance: %w", err)
		}
	}

	for _, tp := range result.Topics {
		var topicID int64
		if err := tx.QueryRow(ctx, upsertTopicSQL, tp.Type, tp.Text).Scan(&topicID); err != nil {
			return fmt.Errorf("wordstore: upsert topic %q: %w", tp.Text, err)
		}
		if _, err := tx.Exec(ctx, upsertTopicAppearanceSQL, topicID, documentID); err != nil {
			return fmt.Errorf("wordstore: upsert topic appearance: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("wordstore: commit: %w", err)
	}
	return nil
}
