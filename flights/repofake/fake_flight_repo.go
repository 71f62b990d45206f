package fakeflightrepo

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dream1290/dbxui-sub000/flights"
	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
)

var _ flights.Repo = (*FakeFlightRepo)(nil)

type FakeFlightRepo struct {
	flights map[string]flights.Flight
	lock    sync.RWMutex
}

func NewFakeFlightRepo() *FakeFlightRepo {
	return &FakeFlightRepo{
		flights: make(map[string]flights.Flight),
	}
}

func (fr *FakeFlightRepo) Upsert(flight *flights.Flight) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if flight.ID == "" {
		flight.ID = uuid.New().String()
	}
	fr.flights[flight.ID] = *flight
	return nil
}

func (fr *FakeFlightRepo) Get(id string) (*flights.Flight, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	f, ok := fr.flights[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &f, nil
}

func (fr *FakeFlightRepo) Delete(id string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if _, ok := fr.flights[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(fr.flights, id)
	return nil
}

// List returns matching flights ordered by departure time
func (fr *FakeFlightRepo) List(filter flights.Filter) ([]*flights.Flight, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	out := make([]*flights.Flight, 0)
	for _, v := range fr.flights {
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.OrganizationID != "" && v.OrganizationID != filter.OrganizationID {
			continue
		}
		f := v
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DepartureTime.Equal(out[j].DepartureTime) {
			return out[i].DepartureTime.Before(out[j].DepartureTime)
		}
		return out[i].ID < out[j].ID
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []*flights.Flight{}, nil
	}
	end := len(out)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return out[offset:end], nil
}
