package services

import (
	"context"
	"testing"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(name string) CreateAccountInput {
	return CreateAccountInput{
		Name:            name,
		DateOfBirth:     "1990-05-20",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestCreateAccountLogsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput("  Meera ")
	sess, err := f.users.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "Meera", sess.Account.Name)
	assert.Equal(t, 1, sess.Account.Slot)
	assert.Equal(t, "om", sess.Account.Icon)
	assert.Len(t, sess.Account.ID, 36)
	assert.Equal(t, sess.Account.ID, f.accounts.CurrentAccountID())
	assert.Equal(t, sess.Account.ID, f.prefs.CurrentAccountPointer(ctx))

	claims, err := utils.ParseToken(testSecret, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Account.ID, claims.AccountID)
	assert.Equal(t, 1, claims.Slot)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(*CreateAccountInput){
		"short name":     func(in *CreateAccountInput) { in.Name = " A " },
		"missing dob":    func(in *CreateAccountInput) { in.DateOfBirth = "" },
		"bad dob":        func(in *CreateAccountInput) { in.DateOfBirth = "20/05/1990" },
		"future dob":     func(in *CreateAccountInput) { in.DateOfBirth = "2024-03-16" },
		"short password": func(in *CreateAccountInput) { in.Password, in.ConfirmPassword = "12345", "12345" },
		"mismatch":       func(in *CreateAccountInput) { in.ConfirmPassword = "secret2" },
		"bad slot":       func(in *CreateAccountInput) { in.Slot = 4 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput("Meera")
			mutate(&in)
			_, err := f.users.Create(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateAccountSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput("Second")
	in.Slot = 2
	sess, err := f.users.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Account.Slot)

	in = validInput("Taken")
	in.Slot = 2
	sess, err = f.users.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Account.Slot, "falls back to the first free slot")

	sess, err = f.users.Create(ctx, validInput("Third"))
	require.NoError(t, err)
	assert.Equal(t, 3, sess.Account.Slot)

	_, err = f.users.Create(ctx, validInput("Fourth"))
	assert.ErrorIs(t, err, ErrNoFreeSlot)

	slots, err := f.users.Slots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, models.MaxAccountSlots)
	for _, s := range slots {
		assert.False(t, s.IsEmpty)
	}
}

func TestPickSlot(t *testing.T) {
	s, err := pickSlot(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s)

	s, err = pickSlot([]int{1}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s)

	_, err = pickSlot([]int{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrNoFreeSlot)
}

func TestLoginSwitchesAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createAccount(t, "a", 1, "alpha1")
	f.createAccount(t, "b", 2, "bravo1")

	_, err := f.users.Login(ctx, 1, "wrong!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.users.Login(ctx, 3, "alpha1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := f.users.Login(ctx, 1, "alpha1")
	require.NoError(t, err)
	assert.Equal(t, "a", sess.Account.ID)
	require.NoError(t, f.accounts.SetSessionValue(ctx, KeyThemePreference, "saffron"))

	_, err = f.users.Login(ctx, 2, "bravo1")
	require.NoError(t, err)
	assert.Equal(t, "b", f.accounts.CurrentAccountID())
	var theme string
	assert.False(t, f.sessionValue(t, KeyThemePreference, &theme))

	_, err = f.users.Login(ctx, 1, "alpha1")
	require.NoError(t, err)
	require.True(t, f.sessionValue(t, KeyThemePreference, &theme))
	assert.Equal(t, "saffron", theme)
}

func TestLogoutAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createAccount(t, "a", 1, "alpha1")

	_, err := f.users.Login(ctx, 1, "alpha1")
	require.NoError(t, err)
	require.NoError(t, f.accounts.SetSessionValue(ctx, KeyMantraCount, 77))

	// simulate a restart: fresh context, same storage
	f.accounts.ClearCurrentAccount()
	id, err := f.users.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", id)
	assert.Equal(t, "a", f.accounts.CurrentAccountID())

	require.NoError(t, f.users.Logout(ctx, "a"))
	assert.Empty(t, f.accounts.CurrentAccountID())
	assert.Empty(t, f.prefs.CurrentAccountPointer(ctx))

	var n int
	ok, err := f.accounts.Get(ctx, KeyMantraCount, "a", &n)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 77, n)

	id, err = f.users.Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRestoreClearsStalePointer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.prefs.SetCurrentAccountPointer(ctx, "gone"))

	id, err := f.users.Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, f.prefs.CurrentAccountPointer(ctx))
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createAccount(t, "a", 1, "alpha1")
	f.createAccount(t, "b", 2, "bravo1")
	f.seedActivity(t, "a", map[string]int{"2024-03-15": 5})
	f.seedActivity(t, "b", map[string]int{"2024-03-15": 9})
	require.NoError(t, f.times.RecordTimeSpent(ctx, "a", 30))
	_, err := f.goals.SaveGoal(ctx, "a", PeriodDaily, 108, "")
	require.NoError(t, err)
	_, err = f.users.Login(ctx, 1, "alpha1")
	require.NoError(t, err)
	require.NoError(t, f.accounts.Store(ctx, "notes", "x", "a"))

	assert.ErrorIs(t, f.users.Delete(ctx, "a", "nope"), ErrInvalidCredentials)
	require.NoError(t, f.users.Delete(ctx, "a", "alpha1"))

	for _, model := range []interface{}{&models.DailyActivity{}, &models.DailyTimeSpent{}, &models.Goal{}, &models.AccountData{}} {
		var n int64
		require.NoError(t, f.db.Model(model).Where("account_id = ?", "a").Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
	_, err = f.users.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Empty(t, f.accounts.CurrentAccountID())
	assert.Empty(t, f.prefs.CurrentAccountPointer(ctx))

	assert.Equal(t, map[string]int{"2024-03-15": 9}, f.activity.GetActivityData(ctx, "b"))

	slots, err := f.users.Slots(ctx)
	require.NoError(t, err)
	assert.True(t, slots[0].IsEmpty)
	assert.False(t, slots[1].IsEmpty)
}

func TestPreferencesOnboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.prefs.OnboardingSeen(ctx))
	require.NoError(t, f.prefs.SetOnboardingSeen(ctx, true))
	assert.True(t, f.prefs.OnboardingSeen(ctx))
	require.NoError(t, f.prefs.SetOnboardingSeen(ctx, false))
	assert.False(t, f.prefs.OnboardingSeen(ctx))
}

func TestLogoutOfAnotherAccountKeepsCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createAccount(t, "a", 1, "alpha1")
	f.createAccount(t, "b", 2, "bravo2")

	_, err := f.users.Login(ctx, 2, "bravo2")
	require.NoError(t, err)

	require.NoError(t, f.users.Logout(ctx, "a"))
	assert.Equal(t, "b", f.accounts.CurrentAccountID())
	assert.Equal(t, "b", f.prefs.CurrentAccountPointer(ctx))

	a, err := f.users.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, a.TokenVersion)

	assert.ErrorIs(t, f.users.Logout(ctx, "missing"), ErrAccountNotFound)
}
