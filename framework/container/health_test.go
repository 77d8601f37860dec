package container_test

import (
	"context"
	"errors"
	"html/template"
	"testing"
	texttemplate "text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-svcs/framework/container"
)

func TestCheckHealth_RecordsFailuresWithoutFailing(t *testing.T) {
	t.Parallel()

	reg := container.NewRegistry()
	reg.RegisterValue(container.Named[*conn]("first"), &conn{name: "first"}, container.WithPing(noPing))
	reg.RegisterValue(container.Named[*conn]("second"), &conn{name: "second"},
		container.WithPing(func(context.Context, any) error { return errors.New("connection refused") }))
	reg.RegisterValue(container.Named[*conn]("third"), &conn{name: "third"}, container.WithPing(noPing))

	report, err := container.CheckHealth(context.Background(), reg, nil)
	require.NoError(t, err)
	require.Len(t, report, 3)

	assert.True(t, report[container.Named[*conn]("first")].OK)
	assert.True(t, report[container.Named[*conn]("third")].OK)
	assert.Equal(t, container.Status{OK: false, Error: "connection refused"}, report[container.Named[*conn]("second")])
	assert.False(t, report.Healthy())
	assert.Equal(t, []container.ServiceID{container.Named[*conn]("second")}, report.Failed())
}

func TestCheckHealth_ProbeReceivesService(t *testing.T) {
	t.Parallel()

	var seen any
	reg := container.NewRegistry()
	container.ProvideValue(reg, &conn{name: "db"}, container.WithPing(func(_ context.Context, svc any) error {
		seen = svc
		return nil
	}))

	report, err := container.CheckHealth(context.Background(), reg, nil)
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.Equal(t, "db", seen.(*conn).name)
	assert.Equal(t, map[string]container.Status{"*container_test.conn": {OK: true}}, report.Strings())
}

func TestReport_StringsKeepsSameNamedTypesApart(t *testing.T) {
	t.Parallel()

	report := container.Report{
		container.TypeOf[*template.Template]():     {OK: true},
		container.TypeOf[*texttemplate.Template](): {OK: false, Error: "parse failed"},
		container.TypeOf[*conn]():                  {OK: true},
	}

	assert.Equal(t, map[string]container.Status{
		"*html/template.Template": {OK: true},
		"*text/template.Template": {OK: false, Error: "parse failed"},
		"*container_test.conn":    {OK: true},
	}, report.Strings())
}

func TestServiceID_QualifiedString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "*text/template.Template", container.TypeOf[*texttemplate.Template]().QualifiedString())
	assert.Equal(t, "[]*html/template.Template#views", container.Named[[]*template.Template]("views").QualifiedString())
	assert.Equal(t, "int", container.TypeOf[int]().QualifiedString())
	assert.Equal(t, "<invalid>", container.ServiceID{}.QualifiedString())
}

func TestCheckHealth_ResolutionAndPanicFailures(t *testing.T) {
	t.Parallel()

	reg := container.NewRegistry()
	reg.Register(container.Named[*conn]("broken"), container.Func(func(*container.Container) (any, error) {
		return nil, errors.New("cannot dial")
	}), container.WithPing(noPing))
	reg.RegisterValue(container.Named[*conn]("panicky"), &conn{}, container.WithPing(func(context.Context, any) error {
		panic("probe blew up")
	}))

	report, err := container.CheckHealth(context.Background(), reg, nil)
	require.NoError(t, err)
	assert.Contains(t, report[container.Named[*conn]("broken")].Error, "cannot dial")
	assert.Contains(t, report[container.Named[*conn]("panicky")].Error, "probe blew up")
}

func TestCheckHealth_UsesGivenContainer(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	reg := container.NewRegistry()
	reg.Register(container.TypeOf[*conn](), cleanupFactory(rec, "db", nil), container.WithPing(noPing))

	c := container.New(reg)
	c.RegisterLocalValue(container.TypeOf[*conn](), &conn{name: "fake"},
		container.WithPing(func(context.Context, any) error { return errors.New("fake is down") }))

	report, err := container.CheckHealth(context.Background(), reg, func() *container.Container { return c })
	require.NoError(t, err)
	assert.Equal(t, "fake is down", report[container.TypeOf[*conn]()].Error)
	assert.Equal(t, container.StateOpen, c.State(), "caller owns the container")
	assert.Empty(t, rec.list())
}

func TestCheckHealth_PrivateContainerIsClosed(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	reg := container.NewRegistry()
	reg.Register(container.TypeOf[*conn](), cleanupFactory(rec, "db", nil), container.WithPing(noPing))

	report, err := container.CheckHealth(context.Background(), reg, nil)
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.Equal(t, []string{"db"}, rec.list())
}

func TestCheckHealth_NilRegistry(t *testing.T) {
	t.Parallel()

	_, err := container.CheckHealth(context.Background(), nil, nil)
	assert.ErrorIs(t, err, container.ErrNilRegistry)
}

func TestPings(t *testing.T) {
	t.Parallel()

	reg := container.NewRegistry()
	reg.RegisterValue(container.Named[int]("a"), 1, container.WithPing(noPing))
	reg.RegisterValue(container.Named[int]("b"), 2)

	pings := container.New(reg).Pings()
	require.Len(t, pings, 1)
	assert.Equal(t, container.Named[int]("a"), pings[0].ID)
	assert.NoError(t, pings[0].Ping(context.Background()))
}
