package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrEmailExists     = errors.New("email already in use by another contact")
	ErrDuplicatePhone  = errors.New("contact already has this phone number")
)

var updatableContactFields = []string{"name", "address", "email"}

type Contact struct {
	BaseModel
	Name      string         `json:"name" gorm:"not null;index"`
	Address   string         `json:"address" gorm:"not null"`
	Email     string         `json:"email" gorm:"not null;index"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Phones    []Phone        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	// PhoneNumbers carries the flattened phone list over the API.
	PhoneNumbers []string `json:"phones" gorm:"-"`
}

type Phone struct {
	ID          uint      `json:"id,omitempty" gorm:"primarykey"`
	ContactID   uint      `json:"contact_id" gorm:"not null;index;uniqueIndex:idx_phones_contact_id_phone_number"`
	PhoneNumber string    `json:"phone_number" gorm:"not null;index;uniqueIndex:idx_phones_contact_id_phone_number"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Filter is the optional set of substring constraints applied to
// FindAll & Count queries. Empty fields impose no constraint.
type Filter struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a contact & its phone numbers as a single unit, and returns
// the contact as it was persisted - not an in-memory echo of the input.
func (repo *ContactRepository) Create(name, address, email string, phoneNumbers []string) (*Contact, error) {
	contact := Contact{
		Name:    name,
		Address: address,
		Email:   email,
		Phones:  newPhones(phoneNumbers),
	}

	err := repo.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&contact).Error
	})
	if err != nil {
		return nil, translateConstraintError(err)
	}

	return repo.FindById(contact.ID)
}

// FindById returns the active contact with the given id, or nil when the id
// is missing or soft-deleted. A contact with no phones is valid & returns
// an empty phone list.
func (repo *ContactRepository) FindById(id uint) (*Contact, error) {
	contact := Contact{}

	err := repo.db.First(&contact, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := repo.loadPhoneNumbers([]*Contact{&contact}); err != nil {
		return nil, err
	}

	return &contact, nil
}

// FindAll returns the page of active contacts matching 'filter', ordered by
// name ascending, de-duplicated at the contact level even when the phone
// filter joins against multiple phone rows.
func (repo *ContactRepository) FindAll(filter Filter, page, limit int) ([]*Contact, *Paging, error) {
	if page <= 0 {
		page = 1
	}
	switch {
	case limit > MAX_PAGE_SIZE:
		limit = MAX_PAGE_SIZE
	case limit <= 0:
		limit = DEFAULT_PAGE_SIZE
	}

	total, err := repo.Count(filter)
	if err != nil {
		return nil, nil, err
	}

	contacts := []*Contact{}
	err = repo.db.Model(&Contact{}).
		Scopes(filterScope(filter), paginate(page, limit)).
		Distinct("contacts.*").
		Order("contacts.name ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, nil, err
	}

	if err := repo.loadPhoneNumbers(contacts); err != nil {
		return nil, nil, err
	}

	return contacts, newPaging(int64(page), int64(limit), total), nil
}

// Count returns the number of distinct active contacts matching 'filter',
// using the same predicate as FindAll.
func (repo *ContactRepository) Count(filter Filter) (int64, error) {
	var total int64

	err := repo.db.Model(&Contact{}).
		Scopes(filterScope(filter)).
		Distinct("contacts.id").
		Count(&total).Error
	if err != nil {
		return 0, err
	}

	return total, nil
}

// Update applies the given scalar fields to an active contact & stamps
// updated_at. A non-nil phoneNumbers slice replaces the contact's entire
// phone set - there is no per-phone merge.
func (repo *ContactRepository) Update(id uint, data map[string]interface{}, phoneNumbers []string) (*Contact, error) {
	err := repo.db.Transaction(func(tx *gorm.DB) error {
		contact := Contact{}
		if err := tx.First(&contact, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContactNotFound
			}
			return err
		}

		// updated_at is stamped even when only the phone set changes
		if err := tx.Model(&contact).Update("updated_at", time.Now()).Error; err != nil {
			return err
		}

		if len(data) > 0 {
			err := tx.Model(&contact).Select(updatableContactFields).Updates(data).Error
			if err != nil {
				return err
			}
		}

		if phoneNumbers == nil {
			return nil
		}

		if err := tx.Where("contact_id = ?", id).Delete(&Phone{}).Error; err != nil {
			return err
		}

		phones := newPhones(phoneNumbers)
		if len(phones) == 0 {
			return nil
		}
		for i := range phones {
			phones[i].ContactID = id
		}

		return tx.Create(&phones).Error
	})
	if err != nil {
		return nil, translateConstraintError(err)
	}

	return repo.FindById(id)
}

// Delete soft-deletes an active contact. Deleting a missing or already
// deleted contact returns ErrContactNotFound - the two cases are
// indistinguishable to the caller.
func (repo *ContactRepository) Delete(id uint) error {
	result := repo.db.Delete(&Contact{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}

	return nil
}

// EmailExists reports whether an active contact other than excludeID already
// holds the given email. Pass excludeID 0 to match against all contacts.
func (repo *ContactRepository) EmailExists(email string, excludeID uint) (bool, error) {
	query := repo.db.Model(&Contact{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// ---------------------------------------------------------------------------------//
// Scopes
// --------------------------------------------------------------------------------//

// filterScope applies each present filter field as a LIKE '%value%' match.
// FindAll & Count share this scope, so their predicates can't drift apart.
func filterScope(filter Filter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Name != "" {
			db = db.Where("contacts.name LIKE ?", "%"+filter.Name+"%")
		}

		if filter.Address != "" {
			db = db.Where("contacts.address LIKE ?", "%"+filter.Address+"%")
		}

		if filter.Email != "" {
			db = db.Where("contacts.email LIKE ?", "%"+filter.Email+"%")
		}

		if filter.Phone != "" {
			db = db.Joins("LEFT JOIN phones ON phones.contact_id = contacts.id").
				Where("phones.phone_number LIKE ?", "%"+filter.Phone+"%")
		}

		return db
	}
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

// loadPhoneNumbers fills PhoneNumbers for each contact with a single
// 'contact_id IN' query, grouped in memory by contact id.
func (repo *ContactRepository) loadPhoneNumbers(contacts []*Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	contactIDs := make([]uint, 0, len(contacts))
	for _, contact := range contacts {
		contactIDs = append(contactIDs, contact.ID)
	}

	phones := []Phone{}
	err := repo.db.Where("contact_id IN ?", contactIDs).Order("id ASC").Find(&phones).Error
	if err != nil {
		return err
	}

	numbersByContactID := map[uint][]string{}
	for _, phone := range phones {
		numbersByContactID[phone.ContactID] = append(numbersByContactID[phone.ContactID], phone.PhoneNumber)
	}

	for _, contact := range contacts {
		contact.PhoneNumbers = numbersByContactID[contact.ID]
		if contact.PhoneNumbers == nil {
			contact.PhoneNumbers = []string{}
		}
	}

	return nil
}

func newPhones(phoneNumbers []string) []Phone {
	phones := make([]Phone, 0, len(phoneNumbers))
	for _, number := range phoneNumbers {
		phones = append(phones, Phone{PhoneNumber: number})
	}

	return phones
}

// translateConstraintError maps sqlite unique-constraint violations to the
// repository's conflict errors, leaving every other storage error untouched.
func translateConstraintError(err error) error {
	if !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return err
	}

	if strings.Contains(err.Error(), "contacts.email") {
		return ErrEmailExists
	}

	if strings.Contains(err.Error(), "phones.") {
		return ErrDuplicatePhone
	}

	return err
}
