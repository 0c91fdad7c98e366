// Package memory implements the repositories in process memory. It mirrors
// the PostgreSQL behaviour the services rely on: unique violations,
// cascading deletes, malformed ids as missing rows and the list query
// semantics of package query.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/query"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

type Store struct {
	mu        sync.RWMutex
	users     []model.User
	bootcamps []model.Bootcamp
	courses   []model.Course
	reviews   []model.Review
}

func New() *Store {
	return &Store{}
}

func (s *Store) Users() repository.UserRepository         { return &userRepo{s} }
func (s *Store) Bootcamps() repository.BootcampRepository { return &bootcampRepo{s} }
func (s *Store) Courses() repository.CourseRepository     { return &courseRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository     { return &reviewRepo{s} }

func uniqueViolation(constraint string) error {
	return fmt.Errorf("memory: %w", &pgconn.PgError{Code: "23505", ConstraintName: constraint})
}

func now() time.Time {
	return time.Now().UTC()
}

func (s *Store) deleteBootcampLocked(id string) {
	s.bootcamps = filter(s.bootcamps, func(b model.Bootcamp) bool { return b.ID != id })
	s.courses = filter(s.courses, func(c model.Course) bool { return c.BootcampID != id })
	s.reviews = filter(s.reviews, func(r model.Review) bool { return r.BootcampID != id })
}

func (s *Store) summary(id string) *model.BootcampSummary {
	for _, b := range s.bootcamps {
		if b.ID == id {
			return &model.BootcampSummary{ID: b.ID, Name: b.Name, Description: b.Description}
		}
	}
	return nil
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// list evaluates p against rows the way query.Find does in SQL.
func list[T any](rows []T, res query.Resource, p query.Params) (*query.Result[T], error) {
	type item struct {
		row T
		doc map[string]interface{}
	}

	var items []item
	for _, row := range rows {
		doc, err := toDoc(row)
		if err != nil {
			return nil, err
		}
		ok, err := matches(doc, p.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, item{row: row, doc: doc})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		for _, key := range p.Sort {
			c := compare(lookup(items[i].doc, key.Field), lookup(items[j].doc, key.Field))
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	total := len(items)
	start := p.StartIndex()
	end := start + p.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	page := make([]T, 0, end-start)
	for _, it := range items[start:end] {
		page = append(page, it.row)
	}
	return query.NewResult(page, total, res, p), nil
}

func toDoc(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	return doc, json.Unmarshal(b, &doc)
}

func lookup(doc map[string]interface{}, path string) interface{} {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func matches(doc map[string]interface{}, filters []query.Filter) (bool, error) {
	for _, f := range filters {
		got := lookup(doc, f.Field)
		if list, ok := got.([]interface{}); ok {
			if !overlaps(list, f.Values) {
				return false, nil
			}
			continue
		}
		switch f.Op {
		case query.OpIn:
			found := false
			for _, v := range f.Values {
				if compare(got, normalize(v)) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			if got == nil {
				return false, nil
			}
			if !satisfies(f.Op, compare(got, normalize(f.Values[0]))) {
				return false, nil
			}
		}
	}
	return true, nil
}

// overlaps reports whether list holds any of values, like JSONB ?|.
func overlaps(list []interface{}, values []interface{}) bool {
	for _, item := range list {
		for _, v := range values {
			if s, ok := item.(string); ok && s == v {
				return true
			}
		}
	}
	return false
}

func satisfies(op query.Op, c int) bool {
	switch op {
	case query.OpGt:
		return c > 0
	case query.OpGte:
		return c >= 0
	case query.OpLt:
		return c < 0
	case query.OpLte:
		return c <= 0
	default:
		return c == 0
	}
}

// normalize converts a parsed filter operand to its JSON document form.
func normalize(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

// compare orders JSON values. Nulls sort first; mismatched types compare
// as equal.
func compare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		bv, ok := b.(bool)
		if !ok || av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0
		}
		ta, errA := time.Parse(time.RFC3339Nano, av)
		tb, errB := time.Parse(time.RFC3339Nano, bv)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		return strings.Compare(av, bv)
	}
	return 0
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	user.CreatedAt, user.UpdatedAt = now(), now()
	r.s.users = append(r.s.users, *user)
	return nil
}

func (r *userRepo) find(match func(model.User) bool) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r *userRepo) ConsumeResetToken(_ context.Context, tokenHash string, at time.Time, passwordHash string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, u := range r.s.users {
		if u.ResetPasswordToken == nil || *u.ResetPasswordToken != tokenHash {
			continue
		}
		if u.ResetPasswordExpire == nil || !u.ResetPasswordExpire.After(at) {
			continue
		}
		u.HashedPassword = passwordHash
		u.ResetPasswordToken, u.ResetPasswordExpire = nil, nil
		u.UpdatedAt = at
		r.s.users[i] = u
		return &u, nil
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) List(_ context.Context, p query.Params) (*query.Result[model.User], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return list(r.s.users, repository.UserResource, p)
}

func (r *userRepo) update(id string, fn func(*model.User) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.users {
		if r.s.users[i].ID == id {
			return fn(&r.s.users[i])
		}
	}
	return common.ErrNotFound
}

func (r *userRepo) Update(_ context.Context, user *model.User) error {
	r.s.mu.RLock()
	for _, u := range r.s.users {
		if u.ID != user.ID && u.Email == user.Email {
			r.s.mu.RUnlock()
			return uniqueViolation("users_email_key")
		}
	}
	r.s.mu.RUnlock()

	return r.update(user.ID, func(u *model.User) error {
		u.Name, u.Email, u.Role, u.UpdatedAt = user.Name, user.Email, user.Role, now()
		user.UpdatedAt = u.UpdatedAt
		return nil
	})
}

func (r *userRepo) SetPassword(_ context.Context, id, passwordHash string) error {
	return r.update(id, func(u *model.User) error {
		u.HashedPassword = passwordHash
		u.ResetPasswordToken, u.ResetPasswordExpire = nil, nil
		u.UpdatedAt = now()
		return nil
	})
}

func (r *userRepo) SetResetToken(_ context.Context, id string, tokenHash *string, expire *time.Time) error {
	return r.update(id, func(u *model.User) error {
		u.ResetPasswordToken, u.ResetPasswordExpire = tokenHash, expire
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	before := len(r.s.users)
	r.s.users = filter(r.s.users, func(u model.User) bool { return u.ID != id })
	if len(r.s.users) == before {
		return common.ErrNotFound
	}
	for _, b := range r.s.bootcamps {
		if b.UserID == id {
			r.s.deleteBootcampLocked(b.ID)
		}
	}
	r.s.courses = filter(r.s.courses, func(c model.Course) bool { return c.UserID != id })
	r.s.reviews = filter(r.s.reviews, func(rv model.Review) bool { return rv.UserID != id })
	return nil
}

type bootcampRepo struct{ s *Store }

func (r *bootcampRepo) Create(_ context.Context, b *model.Bootcamp) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bootcamps {
		if existing.Name == b.Name {
			return uniqueViolation("bootcamps_name_key")
		}
	}
	if b.Photo == "" {
		b.Photo = model.DefaultPhoto
	}
	b.CreatedAt, b.UpdatedAt = now(), now()
	stored := *b
	stored.Courses = nil
	r.s.bootcamps = append(r.s.bootcamps, stored)
	return nil
}

func (r *bootcampRepo) FindByID(_ context.Context, id string) (*model.Bootcamp, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.bootcamps {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *bootcampRepo) List(_ context.Context, p query.Params) (*query.Result[model.Bootcamp], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, err := list(r.s.bootcamps, repository.BootcampResource, p)
	if err != nil {
		return nil, err
	}
	for i := range res.Data {
		res.Data[i].Courses = []model.Course{}
		for _, c := range r.s.courses {
			if c.BootcampID == res.Data[i].ID {
				res.Data[i].Courses = append(res.Data[i].Courses, c)
			}
		}
	}
	return res, nil
}

func (r *bootcampRepo) FindWithinRadius(_ context.Context, lat, lng, miles float64) ([]model.Bootcamp, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Bootcamp{}
	for _, b := range r.s.bootcamps {
		if b.Latitude == nil || b.Longitude == nil {
			continue
		}
		if haversine(lat, lng, *b.Latitude, *b.Longitude) <= miles {
			out = append(out, b)
		}
	}
	return out, nil
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat, dLng := rad(lat2-lat1), rad(lng2-lng1)
	a := math.Pow(math.Sin(dLat/2), 2) + math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Pow(math.Sin(dLng/2), 2)
	return repository.EarthRadiusMiles * 2 * math.Asin(math.Sqrt(a))
}

func (r *bootcampRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, b := range r.s.bootcamps {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *bootcampRepo) update(id string, fn func(*model.Bootcamp)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.bootcamps {
		if r.s.bootcamps[i].ID == id {
			fn(&r.s.bootcamps[i])
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *bootcampRepo) Update(_ context.Context, b *model.Bootcamp) error {
	r.s.mu.RLock()
	for _, existing := range r.s.bootcamps {
		if existing.ID != b.ID && existing.Name == b.Name {
			r.s.mu.RUnlock()
			return uniqueViolation("bootcamps_name_key")
		}
	}
	r.s.mu.RUnlock()

	b.UpdatedAt = now()
	return r.update(b.ID, func(stored *model.Bootcamp) {
		rating, cost := stored.AverageRating, stored.AverageCost
		*stored = *b
		stored.AverageRating, stored.AverageCost = rating, cost
		stored.Courses = nil
	})
}

func (r *bootcampRepo) UpdatePhoto(_ context.Context, id, photo string) error {
	return r.update(id, func(b *model.Bootcamp) {
		b.Photo, b.UpdatedAt = photo, now()
	})
}

func (r *bootcampRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	before := len(r.s.bootcamps)
	r.s.deleteBootcampLocked(id)
	if len(r.s.bootcamps) == before {
		return common.ErrNotFound
	}
	return nil
}

func (r *bootcampRepo) RefreshAverageCost(_ context.Context, id string) error {
	r.s.mu.RLock()
	var sum float64
	var n int
	for _, c := range r.s.courses {
		if c.BootcampID == id {
			sum += c.Tuition
			n++
		}
	}
	r.s.mu.RUnlock()

	return r.update(id, func(b *model.Bootcamp) {
		b.AverageCost = nil
		if n > 0 {
			avg := math.Ceil(sum/float64(n)/10) * 10
			b.AverageCost = &avg
		}
	})
}

func (r *bootcampRepo) RefreshAverageRating(_ context.Context, id string) error {
	r.s.mu.RLock()
	var sum, n int
	for _, rv := range r.s.reviews {
		if rv.BootcampID == id {
			sum += rv.Rating
			n++
		}
	}
	r.s.mu.RUnlock()

	return r.update(id, func(b *model.Bootcamp) {
		b.AverageRating = nil
		if n > 0 {
			avg := float64(sum) / float64(n)
			b.AverageRating = &avg
		}
	})
}

type courseRepo struct{ s *Store }

func (r *courseRepo) Create(_ context.Context, c *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.summary(c.BootcampID) == nil {
		return fmt.Errorf("memory: bootcamp %s does not exist", c.BootcampID)
	}
	c.CreatedAt, c.UpdatedAt = now(), now()
	stored := *c
	stored.Bootcamp = nil
	r.s.courses = append(r.s.courses, stored)
	return nil
}

func (r *courseRepo) FindByID(_ context.Context, id string) (*model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.courses {
		if c.ID == id {
			c.Bootcamp = r.s.summary(c.BootcampID)
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *courseRepo) ListByBootcamp(_ context.Context, bootcampID string) ([]model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Course{}
	for _, c := range r.s.courses {
		if c.BootcampID == bootcampID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *courseRepo) List(_ context.Context, p query.Params) (*query.Result[model.Course], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, err := list(r.s.courses, repository.CourseResource, p)
	if err != nil {
		return nil, err
	}
	for i := range res.Data {
		res.Data[i].Bootcamp = r.s.summary(res.Data[i].BootcampID)
	}
	return res, nil
}

func (r *courseRepo) Update(_ context.Context, c *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.courses {
		if r.s.courses[i].ID == c.ID {
			c.UpdatedAt = now()
			stored := *c
			stored.Bootcamp = nil
			r.s.courses[i] = stored
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *courseRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	before := len(r.s.courses)
	r.s.courses = filter(r.s.courses, func(c model.Course) bool { return c.ID != id })
	if len(r.s.courses) == before {
		return common.ErrNotFound
	}
	return nil
}

type reviewRepo struct{ s *Store }

func (r *reviewRepo) Create(_ context.Context, rv *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.summary(rv.BootcampID) == nil {
		return fmt.Errorf("memory: bootcamp %s does not exist", rv.BootcampID)
	}
	for _, existing := range r.s.reviews {
		if existing.BootcampID == rv.BootcampID && existing.UserID == rv.UserID {
			return uniqueViolation("reviews_bootcamp_id_user_id_key")
		}
	}
	rv.CreatedAt, rv.UpdatedAt = now(), now()
	stored := *rv
	stored.Bootcamp = nil
	r.s.reviews = append(r.s.reviews, stored)
	return nil
}

func (r *reviewRepo) FindByID(_ context.Context, id string) (*model.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rv := range r.s.reviews {
		if rv.ID == id {
			rv.Bootcamp = r.s.summary(rv.BootcampID)
			return &rv, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *reviewRepo) ListByBootcamp(_ context.Context, bootcampID string) ([]model.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Review{}
	for _, rv := range r.s.reviews {
		if rv.BootcampID == bootcampID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *reviewRepo) List(_ context.Context, p query.Params) (*query.Result[model.Review], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, err := list(r.s.reviews, repository.ReviewResource, p)
	if err != nil {
		return nil, err
	}
	for i := range res.Data {
		res.Data[i].Bootcamp = r.s.summary(res.Data[i].BootcampID)
	}
	return res, nil
}

func (r *reviewRepo) Update(_ context.Context, rv *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.reviews {
		if r.s.reviews[i].ID == rv.ID {
			rv.UpdatedAt = now()
			stored := *rv
			stored.Bootcamp = nil
			r.s.reviews[i] = stored
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *reviewRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	before := len(r.s.reviews)
	r.s.reviews = filter(r.s.reviews, func(rv model.Review) bool { return rv.ID != id })
	if len(r.s.reviews) == before {
		return common.ErrNotFound
	}
	return nil
}
