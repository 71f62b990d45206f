package orgrepofake

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/organizations"
)

var _ organizations.Repo = (*FakeOrganizationRepo)(nil)

type FakeOrganizationRepo struct {
	orgs map[string]organizations.Organization
	lock sync.RWMutex
}

func NewFakeOrganizationRepo() *FakeOrganizationRepo {
	return &FakeOrganizationRepo{
		orgs: make(map[string]organizations.Organization),
	}
}

func (or *FakeOrganizationRepo) Upsert(org *organizations.Organization) error {
	or.lock.Lock()
	defer or.lock.Unlock()
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	or.orgs[org.ID] = *org
	return nil
}

func (or *FakeOrganizationRepo) Delete(orgID string) error {
	or.lock.Lock()
	defer or.lock.Unlock()
	if _, ok := or.orgs[orgID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(or.orgs, orgID)
	return nil
}

func (or *FakeOrganizationRepo) Get(orgID string) (*organizations.Organization, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()
	org, ok := or.orgs[orgID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &org, nil
}

func (or *FakeOrganizationRepo) List(offset, limit int) ([]*organizations.Organization, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()

	orgs := make([]*organizations.Organization, 0, len(or.orgs))
	for _, v := range or.orgs {
		org := v
		orgs = append(orgs, &org)
	}
	sort.Slice(orgs, func(i, j int) bool {
		return orgs[i].ID < orgs[j].ID
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(orgs) {
		return []*organizations.Organization{}, nil
	}
	end := len(orgs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return orgs[offset:end], nil
}
