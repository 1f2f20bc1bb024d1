// Package mocks provides test doubles for the geocode package.
package mocks

import (
	"context"

	geocode "github.com/biz-in-support/bizmap/pkg/geocode"
	mock "github.com/stretchr/testify/mock"
)

// MockLookuper is a mock type for the Lookuper interface.
type MockLookuper struct {
	mock.Mock
}

// Lookup provides a mock function with given fields: ctx, query, opts
func (_m *MockLookuper) Lookup(ctx context.Context, query string, opts geocode.LookupOptions) (*geocode.Place, error) {
	ret := _m.Called(ctx, query, opts)

	if len(ret) == 0 {
		panic("no return value specified for Lookup")
	}

	var r0 *geocode.Place
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, geocode.LookupOptions) (*geocode.Place, error)); ok {
		return rf(ctx, query, opts)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, geocode.LookupOptions) *geocode.Place); ok {
		r0 = rf(ctx, query, opts)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geocode.Place)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, geocode.LookupOptions) error); ok {
		r1 = rf(ctx, query, opts)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockLookuper creates a new instance of MockLookuper.
func NewMockLookuper(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLookuper {
	mock := &MockLookuper{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
