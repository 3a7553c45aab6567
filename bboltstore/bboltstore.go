// Package bboltstore implements presskit.PostStore with bbolt for document
// storage and bleve for search. Query pages come back as the raw bolt
// values, so materialization cost stays with the caller.
package bboltstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.etcd.io/bbolt"

	"github.com/hypergopher/presskit"
)

const (
	bboltFile        = "presskit.db"
	bleveFile        = "presskit.bleve"
	bucketPosts      = "posts"
	bucketTaxonomies = "taxonomies"
)

type matchOptions struct {
	field string
	value string
}

// Store is a bbolt + bleve backed presskit.PostStore.
type Store struct {
	bleveIndex bleve.Index
	boltIndex  *bbolt.DB
	dataDir    string
	logger     *slog.Logger
	mu         sync.Mutex
	taxonomies []string
}

// New creates a Store rooted at dataDir. The taxonomies are the taxonomy
// names to index for term queries.
func New(dataDir string, taxonomies []string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = defaultLogger()
	}

	return &Store{
		dataDir:    dataDir,
		taxonomies: taxonomies,
		logger:     logger,
	}
}

// Init opens the bbolt and bleve indexes, creating them if needed.
func (s *Store) Init() error {
	boltIndex, err := s.initBolt()
	if err != nil {
		return fmt.Errorf("failed to initialize bbolt: %w", err)
	}
	s.boltIndex = boltIndex

	bleveIndex, err := s.initBleve()
	if err != nil {
		return fmt.Errorf("failed to initialize bleve: %w", err)
	}
	s.bleveIndex = bleveIndex

	return nil
}

// Clear removes both index files and reinitializes them.
func (s *Store) Clear() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close indexes: %w", err)
	}

	boltPath := filepath.Join(s.dataDir, bboltFile)
	blevePath := filepath.Join(s.dataDir, bleveFile)

	if err := os.Remove(boltPath); err != nil {
		return fmt.Errorf("failed to remove bolt file: %w", err)
	}

	if err := os.RemoveAll(blevePath); err != nil {
		return fmt.Errorf("failed to remove bleve file: %w", err)
	}

	return s.Init()
}

func (s *Store) Close() error {
	if s.boltIndex != nil {
		if err := s.boltIndex.Close(); err != nil {
			return err
		}
	}

	if s.bleveIndex != nil {
		return s.bleveIndex.Close()
	}

	return nil
}

// Create stores and indexes a new post.
func (s *Store) Create(ctx context.Context, post *presskit.Post) (*presskit.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, _ := s.get(post.PostType, post.Slug); existing != nil {
		return nil, fmt.Errorf("%w: %s", presskit.ErrPostExists, post.ID())
	}

	if err := s.put(post, nil); err != nil {
		return nil, err
	}

	return post, nil
}

// Update reindexes an existing post, possibly under a new type or slug.
func (s *Store) Update(ctx context.Context, oldType, oldSlug string, post *presskit.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldID := presskit.PostID(oldType, oldSlug)
	current, err := s.get(oldType, oldSlug)
	if err != nil {
		return fmt.Errorf("%w: %s", presskit.ErrPostNotFound, oldID)
	}

	if oldID != post.ID() {
		if err := s.remove(current); err != nil {
			return err
		}
		return s.put(post, nil)
	}

	return s.put(post, current)
}

// Delete removes a post from both indexes.
func (s *Store) Delete(ctx context.Context, postType, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, err := s.get(postType, slug)
	if err != nil {
		return fmt.Errorf("%w: %s", presskit.ErrPostNotFound, presskit.PostID(postType, slug))
	}

	return s.remove(post)
}

// Get retrieves a post by its type and slug.
func (s *Store) Get(ctx context.Context, postType, slug string) (*presskit.Post, error) {
	return s.get(postType, slug)
}

// Query runs a bleve search and returns the matching page as raw bolt
// values. Property filters are not indexed and are ignored by this store.
func (s *Store) Query(ctx context.Context, opts presskit.FilterOptions) (*presskit.QueryResult, error) {
	opts = opts.Normalized()

	checkField := ""
	checkValue := ""
	var matches []matchOptions
	var extraFields []string

	if opts.FilterAuthor != "" {
		// The match query analyzes the field, so a post-check against the
		// stored field guards against partial matches.
		checkField = "authors"
		checkValue = opts.FilterAuthor
		extraFields = append(extraFields, "authors")
		matches = append(matches, matchOptions{"authors", opts.FilterAuthor})
	}

	for _, tax := range opts.FilterTaxonomies {
		field := fmt.Sprintf("taxonomies.%s", tax.Key)
		extraFields = append(extraFields, field)
		matches = append(matches, matchOptions{field, tax.Value})
	}

	matches = append(matches, matchOptions{"search", opts.FilterSearch})

	if opts.FilterStatus != presskit.FilterAny && !opts.IncludeUnpublished {
		matches = append(matches, matchOptions{"status", opts.FilterStatus})
	}

	if opts.FilterVisibility != presskit.FilterAny {
		matches = append(matches, matchOptions{"visibility", opts.FilterVisibility})
	}

	if opts.SplitFeatured {
		// Featured posts lead every page; only the rest paginates.
		featuredQuery := s.searchQuery(opts.FilterPostType, matches...)
		featuredQuery.AddQuery(featuredFilter(true))

		countResult, err := s.bleveIndex.Search(bleve.NewSearchRequestOptions(featuredQuery, 0, 0, false))
		if err != nil {
			return nil, fmt.Errorf("error counting featured posts: %w", err)
		}

		var featured []presskit.QueryRow
		if countResult.Total > 0 {
			request := s.searchRequest(featuredQuery, 1, int(countResult.Total), opts.SortBy, extraFields...)
			featured, _, err = s.fetchRows(request, checkField, checkValue)
			if err != nil {
				return nil, err
			}
		}

		restQuery := s.searchQuery(opts.FilterPostType, matches...)
		restQuery.AddQuery(featuredFilter(false))

		request := s.searchRequest(restQuery, opts.PageNum, opts.PageSize, opts.SortBy, extraFields...)
		rest, restTotal, err := s.fetchRows(request, checkField, checkValue)
		if err != nil {
			return nil, err
		}

		return &presskit.QueryResult{
			Rows:     append(featured, rest...),
			Total:    int(countResult.Total) + restTotal,
			PageNum:  opts.PageNum,
			PageSize: opts.PageSize,
		}, nil
	}

	request := s.searchRequest(
		s.searchQuery(opts.FilterPostType, matches...),
		opts.PageNum, opts.PageSize, opts.SortBy, extraFields...)

	rows, total, err := s.fetchRows(request, checkField, checkValue)
	if err != nil {
		return nil, err
	}

	return &presskit.QueryResult{
		Rows:     rows,
		Total:    total,
		PageNum:  opts.PageNum,
		PageSize: opts.PageSize,
	}, nil
}

// fetchRows runs a search request and reads the hit documents out of bolt as
// raw rows.
func (s *Store) fetchRows(request *bleve.SearchRequest, checkField, checkValue string) ([]presskit.QueryRow, int, error) {
	result, err := s.bleveIndex.Search(request)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching for posts: %w", err)
	}

	rows := make([]presskit.QueryRow, 0, len(result.Hits))
	err = s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		for _, hit := range result.Hits {
			if checkField != "" && !slices.Contains(anyToStringSlice(hit.Fields[checkField]), checkValue) {
				continue
			}

			data := b.Get([]byte(hit.ID))
			if data == nil {
				s.logger.Warn("post indexed but missing from bolt", slog.String("id", hit.ID))
				continue
			}

			// Bolt values are only valid inside the transaction
			rows = append(rows, presskit.QueryRow{ID: hit.ID, Data: slices.Clone(data)})
		}

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error reading posts from bolt: %w", err)
	}

	return rows, int(result.Total), nil
}

// featuredFilter is a boolean field query on the featured flag.
func featuredFilter(value bool) *query.BoolFieldQuery {
	q := bleve.NewBoolFieldQuery(value)
	q.SetField("featured")
	return q
}

// Taxonomies returns the distinct taxonomy names in the term bucket.
func (s *Store) Taxonomies(ctx context.Context) ([]string, error) {
	var taxonomies []string
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketTaxonomies))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.ForEach(func(k, _ []byte) error {
			name, _, found := strings.Cut(string(k), ":")
			if found && !slices.Contains(taxonomies, name) {
				taxonomies = append(taxonomies, name)
			}
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("error getting taxonomies: %w", err)
	}

	slices.Sort(taxonomies)
	return taxonomies, nil
}

// TaxonomyTerms returns the terms for a given taxonomy.
func (s *Store) TaxonomyTerms(ctx context.Context, taxonomy string) ([]string, error) {
	var terms []string
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketTaxonomies))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		cursor := b.Cursor()
		prefix := []byte(taxonomy + ":")
		for k, _ := cursor.Seek(prefix); k != nil && strings.HasPrefix(string(k), taxonomy+":"); k, _ = cursor.Next() {
			terms = append(terms, strings.TrimPrefix(string(k), taxonomy+":"))
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error getting taxonomy terms: %w", err)
	}

	return terms, nil
}

// get reads and deserializes a post by ID.
func (s *Store) get(postType, slug string) (*presskit.Post, error) {
	id := presskit.PostID(postType, slug)

	var post *presskit.Post
	err := s.boltIndex.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		postBytes := b.Get([]byte(id))
		if postBytes == nil {
			return presskit.ErrPostNotFound
		}

		var err error
		post, err = presskit.Deserialize(postBytes)
		if err != nil {
			return fmt.Errorf("error deserializing post: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error getting post %s: %w", id, err)
	}
	return post, nil
}

// put writes a post to bolt, adjusts taxonomy counts relative to prev, and
// indexes it in bleve.
func (s *Store) put(post, prev *presskit.Post) error {
	err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		if prev != nil {
			for taxonomy, terms := range prev.Taxonomies {
				for _, term := range terms {
					if !slices.Contains(post.Taxonomies[taxonomy], term) {
						if err := s.updateTaxonomyCount(tx, taxonomy, term, -1); err != nil {
							s.logger.Error("failed to update taxonomy count",
								slog.String("taxonomy", taxonomy),
								slog.String("error", err.Error()))
							continue
						}
					}
				}
			}
		}

		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		postBytes, err := post.Serialize()
		if err != nil {
			return fmt.Errorf("failed to serialize post: %w", err)
		}

		if err := b.Put([]byte(post.ID()), postBytes); err != nil {
			return fmt.Errorf("failed to put post in bucket: %w", err)
		}

		for taxonomy, terms := range post.Taxonomies {
			for _, term := range terms {
				if prev != nil && slices.Contains(prev.Taxonomies[taxonomy], term) {
					continue
				}
				if err := s.updateTaxonomyCount(tx, taxonomy, term, 1); err != nil {
					s.logger.Error("failed to update taxonomy count",
						slog.String("taxonomy", taxonomy),
						slog.String("error", err.Error()))
					continue
				}
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update post in bolt: %w", err)
	}

	if err := s.bleveIndex.Index(post.ID(), post); err != nil {
		return fmt.Errorf("failed to index post in bleve: %w", err)
	}

	return nil
}

// remove deletes a post from bolt and bleve and decrements its taxonomy
// counts.
func (s *Store) remove(post *presskit.Post) error {
	if err := s.boltIndex.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		if err := b.Delete([]byte(post.ID())); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}

		for taxonomy, terms := range post.Taxonomies {
			for _, term := range terms {
				if err := s.updateTaxonomyCount(tx, taxonomy, term, -1); err != nil {
					s.logger.Error("failed to update taxonomy count",
						slog.String("taxonomy", taxonomy),
						slog.String("error", err.Error()))
					continue
				}
			}
		}

		return nil
	}); err != nil {
		return fmt.Errorf("failed to update bolt: %w", err)
	}

	if err := s.bleveIndex.Delete(post.ID()); err != nil {
		return fmt.Errorf("failed to delete post from bleve: %w", err)
	}

	return nil
}

func (s *Store) initBolt() (*bbolt.DB, error) {
	boltPath := filepath.Join(s.dataDir, bboltFile)
	boltIndex, err := bbolt.Open(boltPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt index: %w", err)
	}

	err = boltIndex.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketPosts)); err != nil {
			return fmt.Errorf("failed to create posts bucket: %w", err)
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(bucketTaxonomies)); err != nil {
			return fmt.Errorf("failed to create taxonomies bucket: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return boltIndex, nil
}

func (s *Store) initBleve() (bleve.Index, error) {
	index, err := bleve.Open(filepath.Join(s.dataDir, bleveFile))
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		s.logger.Debug("Creating new bleve index")
		indexMapping := s.defineBleveMapping()
		index, err = bleve.NewUsing(filepath.Join(s.dataDir, bleveFile), indexMapping, bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create bleve index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open bleve index: %w", err)
	}

	return index, nil
}

func (s *Store) defineBleveMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	docMapping.AddFieldMappingsAt("slug", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("postType", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("content", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("name", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("subtitle", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("summary", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("featured", bleve.NewBooleanFieldMapping())
	docMapping.AddFieldMappingsAt("status", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("visibility", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("published", bleve.NewDateTimeFieldMapping())
	docMapping.AddFieldMappingsAt("updated", bleve.NewDateTimeFieldMapping())
	docMapping.AddFieldMappingsAt("authors", bleve.NewTextFieldMapping())

	taxonomyMapping := bleve.NewDocumentMapping()
	for _, taxonomy := range s.taxonomies {
		taxonomyMapping.AddFieldMappingsAt(taxonomy, bleve.NewTextFieldMapping())
	}

	docMapping.AddSubDocumentMapping("taxonomies", taxonomyMapping)
	indexMapping.AddDocumentMapping("post", docMapping)

	return indexMapping
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelDebug,
		}))
}

func (s *Store) updateTaxonomyCount(tx *bbolt.Tx, taxonomy, term string, delta int) error {
	b := tx.Bucket([]byte(bucketTaxonomies))
	if b == nil {
		return fmt.Errorf("bucket not found")
	}

	count := 0
	key := []byte(fmt.Sprintf("%s:%s", taxonomy, term))
	countBytes := b.Get(key)
	if countBytes != nil {
		count = int(binary.BigEndian.Uint64(countBytes))
	}

	count += delta
	if count < 0 {
		count = 0
	}

	if count == 0 {
		return b.Delete(key)
	}

	newCount := make([]byte, 8)
	binary.BigEndian.PutUint64(newCount, uint64(count))
	return b.Put(key, newCount)
}

func (s *Store) searchRequest(q query.Query, pageNum, pageSize int, sortBy []string, fields ...string) *bleve.SearchRequest {
	offset := (pageNum - 1) * pageSize
	request := bleve.NewSearchRequestOptions(q, pageSize, offset, true)

	if len(sortBy) > 0 {
		request.SortBy(sortBy)
	} else {
		request.SortBy([]string{
			"-featured",
			"-published",
			"name",
		})
	}

	requestFields := []string{
		"slug",
		"name",
		"postType",
		"published",
		"updated",
		"authors",
	}

	request.Fields = append(requestFields, fields...)
	return request
}

func (s *Store) searchQuery(postType presskit.PostType, matches ...matchOptions) *query.ConjunctionQuery {
	queries := make([]query.Query, 0, len(matches)+1)

	if !postType.IsAny() {
		typeQuery := bleve.NewMatchQuery(string(postType))
		typeQuery.SetField("postType")
		queries = append(queries, typeQuery)
	}

	for _, match := range matches {
		field := strings.TrimSpace(match.field)
		value := strings.TrimSpace(match.value)

		if field == "" || value == "" {
			continue
		}

		if strings.ToLower(field) == "search" {
			search := bleve.NewQueryStringQuery(value)
			queries = append(queries, search)
			continue
		}

		termQuery := bleve.NewMatchQuery(match.value)
		termQuery.SetField(match.field)
		queries = append(queries, termQuery)
	}

	return bleve.NewConjunctionQuery(queries...)
}

// anyToStringSlice converts a bleve hit field value to a []string
func anyToStringSlice(value any) []string {
	if val, ok := value.(string); ok {
		return []string{val}
	} else if val, ok := value.([]any); ok {
		var result []string
		for _, v := range val {
			if s, ok := v.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}

	return []string{}
}
