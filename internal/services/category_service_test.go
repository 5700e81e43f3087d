package services

import (
	"context"
	"testing"
	"time"

	"moneyflow/internal/models"
	"moneyflow/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCategoryService(db, newGuard())

		category, err := svc.CreateCategory(ctx, " Groceries ", models.CategoryTypeExpense, "#00FF00")
		testutil.AssertNoError(t, err)
		if category.Name != "Groceries" {
			t.Errorf("expected trimmed name, got %q", category.Name)
		}
		if category.Color != "#00FF00" {
			t.Errorf("expected color #00FF00, got %s", category.Color)
		}
	})

	t.Run("default_color", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		category, err := NewCategoryService(db, newGuard()).CreateCategory(ctx, "Bonus", models.CategoryTypeIncome, "")
		testutil.AssertNoError(t, err)
		if category.Color != defaultCategoryColor {
			t.Errorf("expected default color, got %s", category.Color)
		}
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, err := NewCategoryService(db, newGuard()).CreateCategory(ctx, "Moving", "transfer", "")
		testutil.AssertAppError(t, err, "INVALID_CATEGORY_TYPE")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, err := NewCategoryService(db, newGuard()).CreateCategory(ctx, "", models.CategoryTypeIncome, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_ignores_case", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCategoryService(db, newGuard())

		_, err := svc.CreateCategory(ctx, "Rent", models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(ctx, "rent", models.CategoryTypeExpense, "")
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")

		// Same name under the other type is allowed.
		_, err = svc.CreateCategory(ctx, "Rent", models.CategoryTypeIncome, "")
		testutil.AssertNoError(t, err)
	})
}

func TestListCategories(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewCategoryService(db, newGuard())

	for _, c := range []struct {
		name string
		typ  models.CategoryType
	}{{"Travel", models.CategoryTypeExpense}, {"Salary", models.CategoryTypeIncome}, {"Food", models.CategoryTypeExpense}} {
		_, err := svc.CreateCategory(ctx, c.name, c.typ, "")
		testutil.AssertNoError(t, err)
	}

	all, err := svc.ListCategories(ctx, nil)
	testutil.AssertNoError(t, err)
	if len(all) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(all))
	}
	if all[0].Name != "Food" || all[1].Name != "Travel" || all[2].Name != "Salary" {
		t.Errorf("unexpected order: %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}

	income := models.CategoryTypeIncome
	filtered, err := svc.ListCategories(ctx, &income)
	testutil.AssertNoError(t, err)
	if len(filtered) != 1 || filtered[0].Name != "Salary" {
		t.Errorf("expected only Salary, got %+v", filtered)
	}

	bogus := models.CategoryType("transfer")
	_, err = svc.ListCategories(ctx, &bogus)
	testutil.AssertAppError(t, err, "INVALID_CATEGORY_TYPE")
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("rename_and_recolor", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCategoryService(db, newGuard())
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		updated, err := svc.UpdateCategory(ctx, category.ID, strPtr("Dining"), strPtr("#ABCDEF"))
		testutil.AssertNoError(t, err)
		if updated.Name != "Dining" || updated.Color != "#ABCDEF" {
			t.Errorf("unexpected category %+v", updated)
		}
		if updated.Type != models.CategoryTypeExpense {
			t.Errorf("type must not change, got %s", updated.Type)
		}
	})

	t.Run("case_only_rename", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCategoryService(db, newGuard())
		category, err := svc.CreateCategory(ctx, "fuel", models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)

		updated, err := svc.UpdateCategory(ctx, category.ID, strPtr("Fuel"), nil)
		testutil.AssertNoError(t, err)
		if updated.Name != "Fuel" {
			t.Errorf("expected Fuel, got %s", updated.Name)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCategoryService(db, newGuard())
		_, err := svc.CreateCategory(ctx, "Rent", models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)
		other, err := svc.CreateCategory(ctx, "Utilities", models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateCategory(ctx, other.ID, strPtr("RENT"), nil)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, err := NewCategoryService(db, newGuard()).UpdateCategory(ctx, "missing", strPtr("x"), nil)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("unused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCategoryService(db, newGuard())
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

		testutil.AssertNoError(t, svc.DeleteCategory(ctx, category.ID))
		_, err := svc.GetCategoryByID(ctx, category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("in_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCategoryService(db, newGuard())
		account := testutil.CreateTestAccount(t, db, models.AccountKindBank, "0")
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)
		testutil.CreateTestTransaction(t, db, account, category, "10", time.Now())

		testutil.AssertAppError(t, svc.DeleteCategory(ctx, category.ID), "CATEGORY_IN_USE")
	})

	t.Run("name_reusable_after_delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCategoryService(db, newGuard())
		category, err := svc.CreateCategory(ctx, "Gifts", models.CategoryTypeIncome, "")
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, svc.DeleteCategory(ctx, category.ID))

		_, err = svc.CreateCategory(ctx, "Gifts", models.CategoryTypeIncome, "")
		testutil.AssertNoError(t, err)
	})
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewCategoryService(db, newGuard())

	created, err := svc.SeedDefaults(ctx)
	testutil.AssertNoError(t, err)
	if len(created) != len(DefaultCategories) {
		t.Fatalf("expected %d seeded categories, got %d", len(DefaultCategories), len(created))
	}

	again, err := svc.SeedDefaults(ctx)
	testutil.AssertNoError(t, err)
	if len(again) != 0 {
		t.Errorf("seeding twice must be a no-op, created %d", len(again))
	}

	all, err := svc.ListCategories(ctx, nil)
	testutil.AssertNoError(t, err)
	if len(all) != len(DefaultCategories) {
		t.Errorf("expected %d categories, got %d", len(DefaultCategories), len(all))
	}
}
