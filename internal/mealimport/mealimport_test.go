package mealimport

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meal-kart/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,name,description,type,available,price,photo,category
M1,Chicken Bowl,Grilled chicken with rice,lunch,true,32.50,https://img.test/m1.jpg,high-protein
M2,Oat Pancakes,,breakfast,false,18,,
,Nameless,,,,,,
M3,Lentil Soup
`

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	for name, input := range map[string][]byte{
		"plain":   []byte(sampleCSV),
		"gzipped": gzipped(t, sampleCSV),
	} {
		t.Run(name, func(t *testing.T) {
			meals, skipped, err := Parse(context.Background(), bytes.NewReader(input))
			require.NoError(t, err)
			assert.Equal(t, 1, skipped)
			require.Len(t, meals, 3)

			assert.Equal(t, "M1", meals[0].ID)
			assert.Equal(t, "Chicken Bowl", meals[0].Name)
			assert.True(t, meals[0].Available)
			assert.True(t, meals[0].Price.Equal(decimal.RequireFromString("32.5")))
			require.NotNil(t, meals[0].Category)
			assert.Equal(t, "high-protein", *meals[0].Category)

			assert.False(t, meals[1].Available)
			assert.Nil(t, meals[1].Description)

			assert.Equal(t, "Lentil Soup", meals[2].Name)
			assert.True(t, meals[2].Available)
			assert.True(t, meals[2].Price.IsZero())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing name column", input: "id,price\nM1,10\n"},
		{name: "bad price", input: "id,name,price\nM1,Soup,ten\n"},
		{name: "bad availability", input: "id,name,available\nM1,Soup,maybe\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(context.Background(), strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}

	meals, skipped, err := Parse(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, meals)
	assert.Zero(t, skipped)
}

func TestFileLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meals.csv.gz")
	require.NoError(t, os.WriteFile(path, gzipped(t, sampleCSV), 0o600))

	meals, err := NewFileLoader(zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, meals, 3)

	_, err = NewFileLoader(zerolog.Nop()).Load(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestDirLoader_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "meals"), 0o755))
	path := filepath.Join(dir, "meals", "catalogue.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	loader := NewDirLoader(dir, zerolog.Nop())

	meals, err := loader.Load(context.Background(), "meals/catalogue.csv")
	require.NoError(t, err)
	assert.Len(t, meals, 3)

	meals, err = loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, meals, 3)
}

type fakeS3 struct {
	body []byte
	err  error
	key  string
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.key = *params.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestS3Loader_Load(t *testing.T) {
	client := &fakeS3{body: []byte(sampleCSV)}
	meals, err := newS3Loader(client, "catalogue", zerolog.Nop()).Load(context.Background(), "meals/week1.csv")
	require.NoError(t, err)
	assert.Equal(t, "meals/week1.csv", client.key)
	assert.Len(t, meals, 3)
}

type loaderFunc func(ctx context.Context, path string) ([]model.Meal, error)

func (f loaderFunc) Load(ctx context.Context, path string) ([]model.Meal, error) { return f(ctx, path) }

func TestFallbackLoader(t *testing.T) {
	ctx := context.Background()
	s3Meals := []model.Meal{{ID: "S3"}}
	localMeals := []model.Meal{{ID: "LOCAL"}}

	local := loaderFunc(func(_ context.Context, path string) ([]model.Meal, error) {
		assert.Equal(t, "week1.csv", path, "local path should not have prefix")
		return localMeals, nil
	})

	t.Run("S3 success", func(t *testing.T) {
		remote := loaderFunc(func(_ context.Context, key string) ([]model.Meal, error) {
			assert.Equal(t, "meals/week1.csv", key)
			return s3Meals, nil
		})
		meals, err := NewFallbackLoader(remote, local, "meals/", true, zerolog.Nop()).Load(ctx, "week1.csv")
		require.NoError(t, err)
		assert.Equal(t, s3Meals, meals)
	})

	t.Run("S3 failure falls back", func(t *testing.T) {
		remote := loaderFunc(func(context.Context, string) ([]model.Meal, error) {
			return nil, errors.New("access denied")
		})
		meals, err := NewFallbackLoader(remote, local, "meals/", true, zerolog.Nop()).Load(ctx, "week1.csv")
		require.NoError(t, err)
		assert.Equal(t, localMeals, meals)
	})

	t.Run("S3 disabled", func(t *testing.T) {
		remote := loaderFunc(func(context.Context, string) ([]model.Meal, error) {
			t.Error("S3 loader should not be called when S3 is disabled")
			return nil, nil
		})
		meals, err := NewFallbackLoader(remote, local, "meals/", false, zerolog.Nop()).Load(ctx, "week1.csv")
		require.NoError(t, err)
		assert.Equal(t, localMeals, meals)
	})
}

type MockMealWriter struct {
	mock.Mock
}

func (m *MockMealWriter) InsertBatch(ctx context.Context, meals []model.Meal) (int, error) {
	args := m.Called(ctx, meals)
	return args.Int(0), args.Error(1)
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	meals := make([]model.Meal, 1200)
	for i := range meals {
		meals[i] = model.Meal{ID: fmt.Sprintf("M%d", i), Name: "Meal"}
	}
	loader := loaderFunc(func(context.Context, string) ([]model.Meal, error) { return meals, nil })

	writer := new(MockMealWriter)
	writer.On("InsertBatch", ctx, meals[0:500]).Return(500, nil).Once()
	writer.On("InsertBatch", ctx, meals[500:1000]).Return(480, nil).Once()
	writer.On("InsertBatch", ctx, meals[1000:1200]).Return(200, nil).Once()

	report, err := NewImporter(loader, writer, zerolog.Nop()).Import(ctx, "week1.csv")
	require.NoError(t, err)
	assert.Equal(t, Report{Read: 1200, Inserted: 1180, Existing: 20}, report)
	writer.AssertExpectations(t)
}

func TestImporter_Import_WriteFailure(t *testing.T) {
	ctx := context.Background()
	loader := loaderFunc(func(context.Context, string) ([]model.Meal, error) {
		return []model.Meal{{ID: "M1", Name: "Soup"}}, nil
	})
	writer := new(MockMealWriter)
	writer.On("InsertBatch", ctx, mock.Anything).Return(0, errors.New("connection refused"))

	_, err := NewImporter(loader, writer, zerolog.Nop()).Import(ctx, "week1.csv")
	assert.Error(t, err)
}
