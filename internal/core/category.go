package core

import (
	"errors"
	"strings"
)

// Category groups transactions. IconName is a stable string key resolved to a
// renderable icon only at the UI boundary; the core never holds a rendering
// handle.
type Category struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	LocalName       string          `json:"localName,omitempty"`
	Type            TransactionType `json:"type"`
	IconName        string          `json:"iconName,omitempty"`
	Color           string          `json:"color,omitempty"`
	ColorHex        string          `json:"colorHex,omitempty"`
	ShowOnDashboard bool            `json:"showOnDashboard"`
}

var ErrEmptyCategoryName = errors.New("empty category name")

const (
	// Catch-all categories used when a referenced category no longer exists.
	OtherExpenseCategoryID = "cat_other_expense"
	OtherIncomeCategoryID  = "cat_other_income"
)

// Validate checks the fields a user-managed category must carry.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	switch c.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	return nil
}

// FallbackCategoryID returns the catch-all category for a transaction type.
// Lookups of deleted or unknown categories degrade to this rather than fail.
func FallbackCategoryID(t TransactionType) string {
	if t == Income {
		return OtherIncomeCategoryID
	}
	return OtherExpenseCategoryID
}

// DefaultCategories is the seed set written when a user has no categories yet.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat_car", Name: "Car", LocalName: "רכב", IconName: "Car", Color: "text-blue-500", ColorHex: "#3b82f6", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_transport", Name: "Transportation", LocalName: "תחבורה", IconName: "BriefcaseSimple", Color: "text-purple-500", ColorHex: "#8b5cf6", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_leisure", Name: "Leisure", LocalName: "פנאי", IconName: "GameController", Color: "text-pink-500", ColorHex: "#ec4899", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_restaurant", Name: "Restaurant", LocalName: "מסעדה", IconName: "Popcorn", Color: "text-orange-500", ColorHex: "#f97316", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_shopping", Name: "Shopping", LocalName: "קניות", IconName: "ShoppingBag", Color: "text-yellow-500", ColorHex: "#eab308", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_gifts", Name: "Gifts", LocalName: "מתנות", IconName: "Gift", Color: "text-red-500", ColorHex: "#ef4444", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_rent", Name: "Rent", LocalName: "שכר דירה", IconName: "BuildingApartment", Color: "text-teal-500", ColorHex: "#14b8a6", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_studies", Name: "Studies", LocalName: "לימודים", IconName: "GraduationCap", Color: "text-cyan-500", ColorHex: "#06b6d4", Type: Expense},
		{ID: "cat_donations", Name: "Donations", LocalName: "תרומות", IconName: "HandHeart", Color: "text-lime-500", ColorHex: "#84cc16", Type: Expense},
		{ID: "cat_clothing", Name: "Clothing", LocalName: "ביגוד", IconName: "Shirt", Color: "text-fuchsia-500", ColorHex: "#d946ef", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_bills", Name: "Bills", LocalName: "חשבונות", IconName: "CreditCard", Color: "text-sky-500", ColorHex: "#0ea5e9", Type: Expense, ShowOnDashboard: true},
		{ID: "cat_groceries", Name: "Groceries", LocalName: "סופרמרקט", IconName: "Basket", Color: "text-green-500", ColorHex: "#22c55e", Type: Expense, ShowOnDashboard: true},
		{ID: OtherExpenseCategoryID, Name: "Other Expense", LocalName: "אחר", IconName: "Question", Color: "text-gray-500", ColorHex: "#6b7280", Type: Expense},
		{ID: "cat_salary", Name: "Salary", LocalName: "משכורת", IconName: "Coins", Color: "text-emerald-500", ColorHex: "#10b981", Type: Income},
		{ID: "cat_pocket_money", Name: "PocketMoney", LocalName: "דמי כיס", IconName: "PiggyBank", Color: "text-indigo-500", ColorHex: "#6366f1", Type: Income},
		{ID: "cat_grant", Name: "Grant", LocalName: "מענק", IconName: "Coins", Color: "text-emerald-500", ColorHex: "#10b981", Type: Income},
		{ID: "cat_presents", Name: "Presents", LocalName: "מתנה", IconName: "Coins", Color: "text-emerald-500", ColorHex: "#10b981", Type: Income},
		{ID: OtherIncomeCategoryID, Name: "Other Income", LocalName: "אחר", IconName: "Coins", Color: "text-emerald-500", ColorHex: "#10b981", Type: Income},
	}
}
