// Package mocks provides test doubles for the abitus client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	abitus "github.com/pjc-mt/casemap/pkg/abitus"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SearchPersons provides a mock function with given fields: ctx, f
func (_m *MockClient) SearchPersons(ctx context.Context, f abitus.SearchFilter) (*abitus.Page, error) {
	ret := _m.Called(ctx, f)

	if len(ret) == 0 {
		panic("no return value specified for SearchPersons")
	}

	var r0 *abitus.Page
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, abitus.SearchFilter) (*abitus.Page, error)); ok {
		return rf(ctx, f)
	}
	if rf, ok := ret.Get(0).(func(context.Context, abitus.SearchFilter) *abitus.Page); ok {
		r0 = rf(ctx, f)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*abitus.Page)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, abitus.SearchFilter) error); ok {
		r1 = rf(ctx, f)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GetPerson provides a mock function with given fields: ctx, id
func (_m *MockClient) GetPerson(ctx context.Context, id int64) (*abitus.Person, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for GetPerson")
	}

	var r0 *abitus.Person
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, int64) (*abitus.Person, error)); ok {
		return rf(ctx, id)
	}
	if rf, ok := ret.Get(0).(func(context.Context, int64) *abitus.Person); ok {
		r0 = rf(ctx, id)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*abitus.Person)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, id)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Statistics provides a mock function with given fields: ctx
func (_m *MockClient) Statistics(ctx context.Context) (*abitus.Statistics, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Statistics")
	}

	var r0 *abitus.Statistics
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (*abitus.Statistics, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) *abitus.Statistics); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*abitus.Statistics)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// DynamicPersons provides a mock function with given fields: ctx, n
func (_m *MockClient) DynamicPersons(ctx context.Context, n int) ([]abitus.Person, error) {
	ret := _m.Called(ctx, n)

	if len(ret) == 0 {
		panic("no return value specified for DynamicPersons")
	}

	var r0 []abitus.Person
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, int) ([]abitus.Person, error)); ok {
		return rf(ctx, n)
	}
	if rf, ok := ret.Get(0).(func(context.Context, int) []abitus.Person); ok {
		r0 = rf(ctx, n)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]abitus.Person)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, int) error); ok {
		r1 = rf(ctx, n)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// OccurrenceInfo provides a mock function with given fields: ctx, occurrenceID
func (_m *MockClient) OccurrenceInfo(ctx context.Context, occurrenceID int64) ([]abitus.OccurrenceInfo, error) {
	ret := _m.Called(ctx, occurrenceID)

	if len(ret) == 0 {
		panic("no return value specified for OccurrenceInfo")
	}

	var r0 []abitus.OccurrenceInfo
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, int64) ([]abitus.OccurrenceInfo, error)); ok {
		return rf(ctx, occurrenceID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, int64) []abitus.OccurrenceInfo); ok {
		r0 = rf(ctx, occurrenceID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]abitus.OccurrenceInfo)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, occurrenceID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// AddOccurrenceInfo provides a mock function with given fields: ctx, tip
func (_m *MockClient) AddOccurrenceInfo(ctx context.Context, tip abitus.Tip) (*abitus.OccurrenceInfo, error) {
	ret := _m.Called(ctx, tip)

	if len(ret) == 0 {
		panic("no return value specified for AddOccurrenceInfo")
	}

	var r0 *abitus.OccurrenceInfo
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, abitus.Tip) (*abitus.OccurrenceInfo, error)); ok {
		return rf(ctx, tip)
	}
	if rf, ok := ret.Get(0).(func(context.Context, abitus.Tip) *abitus.OccurrenceInfo); ok {
		r0 = rf(ctx, tip)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*abitus.OccurrenceInfo)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, abitus.Tip) error); ok {
		r1 = rf(ctx, tip)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// OccurrenceReasons provides a mock function with given fields: ctx
func (_m *MockClient) OccurrenceReasons(ctx context.Context) ([]abitus.Reason, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for OccurrenceReasons")
	}

	var r0 []abitus.Reason
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]abitus.Reason, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) []abitus.Reason); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]abitus.Reason)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Ping provides a mock function with given fields: ctx
func (_m *MockClient) Ping(ctx context.Context) bool {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Ping")
	}

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context) bool); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(bool)
	}

	return r0
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

var _ abitus.Client = (*MockClient)(nil)
