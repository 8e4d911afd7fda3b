package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"couponhub/internal/model"
	"couponhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// passTx runs the function directly; the fakes have no transactions.
type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- issue repo ---

type fakeIssueRepo struct {
	issues map[uuid.UUID]*model.IssueRequest
	lines  []model.IssueProductLine
	locked []uuid.UUID
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[uuid.UUID]*model.IssueRequest)}
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *model.IssueRequest) error {
	if issue.ID == uuid.Nil {
		issue.ID = uuid.New()
	}
	cp := *issue
	r.issues[issue.ID] = &cp
	return nil
}

func (r *fakeIssueRepo) CreateLines(_ context.Context, lines []model.IssueProductLine) error {
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		r.lines = append(r.lines, lines[i])
	}
	return nil
}

func (r *fakeIssueRepo) FindByID(_ context.Context, id uuid.UUID) (*model.IssueRequest, error) {
	issue, ok := r.issues[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *issue
	return &cp, nil
}

func (r *fakeIssueRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.IssueRequest, error) {
	r.locked = append(r.locked, id)
	return r.FindByID(ctx, id)
}

func (r *fakeIssueRepo) FindWithDetail(ctx context.Context, id uuid.UUID) (*model.IssueRequest, error) {
	issue, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, line := range r.lines {
		if line.IssueID == id {
			issue.ProductLines = append(issue.ProductLines, line)
		}
	}
	return issue, nil
}

func (r *fakeIssueRepo) Save(_ context.Context, issue *model.IssueRequest) error {
	cp := *issue
	r.issues[issue.ID] = &cp
	return nil
}

func (r *fakeIssueRepo) DeleteHard(_ context.Context, id uuid.UUID) error {
	delete(r.issues, id)
	kept := r.lines[:0]
	for _, line := range r.lines {
		if line.IssueID != id {
			kept = append(kept, line)
		}
	}
	r.lines = kept
	return nil
}

func (r *fakeIssueRepo) ListForActor(_ context.Context, role string, actorID uuid.UUID, filter repository.IssueFilter) ([]model.IssueRequest, int64, error) {
	var out []model.IssueRequest
	for _, issue := range r.issues {
		if role == model.ActorPartner {
			if issue.PartnerID == nil || *issue.PartnerID != actorID || issue.PartnerDeletedAt != nil {
				continue
			}
		} else {
			if issue.VendorID == nil || *issue.VendorID != actorID || issue.VendorDeletedAt != nil {
				continue
			}
		}
		switch filter.Status {
		case "":
		case model.IssueStatusCompleted:
			if issue.Status != model.IssueStatusIssued || issue.CompletedAt == nil {
				continue
			}
		case model.IssueStatusIssued:
			if issue.Status != model.IssueStatusIssued || issue.CompletedAt != nil {
				continue
			}
		default:
			if issue.Status != filter.Status {
				continue
			}
		}
		if filter.Title != "" && !strings.Contains(strings.ToLower(issue.Title), strings.ToLower(filter.Title)) {
			continue
		}
		out = append(out, *issue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeIssueRepo) FindPendingByPartnerPhone(_ context.Context, phone string) ([]model.IssueRequest, error) {
	var out []model.IssueRequest
	for _, issue := range r.issues {
		if issue.PartnerID == nil && issue.PartnerPhone == phone && issue.Status == model.IssueStatusPending {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (r *fakeIssueRepo) AssignPartner(_ context.Context, issueIDs []uuid.UUID, partnerID uuid.UUID) error {
	for _, id := range issueIDs {
		if issue, ok := r.issues[id]; ok {
			pid := partnerID
			issue.PartnerID = &pid
		}
	}
	return nil
}

func (r *fakeIssueRepo) SetCompleted(_ context.Context, id uuid.UUID, at time.Time) error {
	if issue, ok := r.issues[id]; ok && issue.CompletedAt == nil {
		issue.CompletedAt = &at
	}
	return nil
}

// --- coupon repo ---

type fakeCouponRepo struct {
	coupons      map[uuid.UUID]*model.Coupon
	registerLogs map[uuid.UUID]*model.RegisterLog
	useLogs      map[uuid.UUID]*model.UseLog
	batchErr     error
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{
		coupons:      make(map[uuid.UUID]*model.Coupon),
		registerLogs: make(map[uuid.UUID]*model.RegisterLog),
		useLogs:      make(map[uuid.UUID]*model.UseLog),
	}
}

func (r *fakeCouponRepo) CreateBatch(_ context.Context, coupons []model.Coupon) error {
	if r.batchErr != nil {
		return r.batchErr
	}
	for i := range coupons {
		if coupons[i].ID == uuid.Nil {
			coupons[i].ID = uuid.New()
		}
		cp := coupons[i]
		r.coupons[cp.ID] = &cp
	}
	return nil
}

func (r *fakeCouponRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, c := range r.coupons {
		if c.RegistrationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCouponRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, ok := r.coupons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCouponRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeCouponRepo) FindByRegistrationCode(_ context.Context, code string) (*model.Coupon, error) {
	for _, c := range r.coupons {
		if c.RegistrationCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCouponRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, id := range ids {
		c, ok := r.coupons[id]
		if !ok {
			continue
		}
		cp := *c
		if cp.RegisterLogID != nil {
			if l, has := r.registerLogs[*cp.RegisterLogID]; has {
				logCp := *l
				cp.RegisterLog = &logCp
			}
		}
		if cp.UseLogID != nil {
			if l, has := r.useLogs[*cp.UseLogID]; has {
				logCp := *l
				cp.UseLog = &logCp
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *fakeCouponRepo) FindDetail(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.RegisterLogID != nil {
		if l, ok := r.registerLogs[*c.RegisterLogID]; ok {
			cp := *l
			c.RegisterLog = &cp
		}
	}
	if c.UseLogID != nil {
		if l, ok := r.useLogs[*c.UseLogID]; ok {
			cp := *l
			c.UseLog = &cp
		}
	}
	return c, nil
}

func (r *fakeCouponRepo) Save(_ context.Context, coupon *model.Coupon) error {
	cp := *coupon
	r.coupons[coupon.ID] = &cp
	return nil
}

func (r *fakeCouponRepo) ListByRegister(_ context.Context, memberID uuid.UUID, page, size int) ([]model.Coupon, int64, error) {
	var out []model.Coupon
	for _, c := range r.coupons {
		if c.RegisterID == nil || *c.RegisterID != memberID {
			continue
		}
		if c.RegisterLogID != nil {
			if l, ok := r.registerLogs[*c.RegisterLogID]; ok && l.DeletedAt != nil {
				continue
			}
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCouponRepo) ListUsedByRegister(_ context.Context, memberID uuid.UUID, page, size int) ([]model.Coupon, int64, error) {
	var out []model.Coupon
	for _, c := range r.coupons {
		if c.RegisterID == nil || *c.RegisterID != memberID || c.UseLogID == nil {
			continue
		}
		cp := *c
		if l, ok := r.useLogs[*c.UseLogID]; ok {
			logCp := *l
			cp.UseLog = &logCp
		}
		out = append(out, cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCouponRepo) CountUnusedByIssue(_ context.Context, issueID uuid.UUID) (int64, error) {
	var count int64
	for _, c := range r.coupons {
		if c.IssueID == issueID && c.UseLogID == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeCouponRepo) CreateRegisterLog(_ context.Context, log *model.RegisterLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	cp := *log
	r.registerLogs[log.ID] = &cp
	return nil
}

func (r *fakeCouponRepo) SoftDeleteRegisterLogs(_ context.Context, logIDs []uuid.UUID, at time.Time) error {
	for _, id := range logIDs {
		if l, ok := r.registerLogs[id]; ok && l.DeletedAt == nil {
			t := at
			l.DeletedAt = &t
		}
	}
	return nil
}

func (r *fakeCouponRepo) CreateUseLog(_ context.Context, log *model.UseLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	cp := *log
	r.useLogs[log.ID] = &cp
	return nil
}

// --- payment qr repo ---

type fakeQrRepo struct {
	qrs []*model.PaymentQr
}

func (r *fakeQrRepo) Create(_ context.Context, qr *model.PaymentQr) error {
	if qr.ID == uuid.Nil {
		qr.ID = uuid.New()
	}
	cp := *qr
	r.qrs = append(r.qrs, &cp)
	return nil
}

func (r *fakeQrRepo) ExpireActiveByCoupon(_ context.Context, couponID uuid.UUID, at time.Time) error {
	for _, qr := range r.qrs {
		if qr.CouponID == couponID && qr.ExpiredAt.After(at) {
			qr.ExpiredAt = at
		}
	}
	return nil
}

func (r *fakeQrRepo) FindValidByCode(_ context.Context, code string, at time.Time) (*model.PaymentQr, error) {
	for _, qr := range r.qrs {
		if qr.PaymentCode == code && qr.ExpiredAt.After(at) {
			cp := *qr
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQrRepo) DeleteByCode(_ context.Context, code string) error {
	kept := r.qrs[:0]
	for _, qr := range r.qrs {
		if qr.PaymentCode != code {
			kept = append(kept, qr)
		}
	}
	r.qrs = kept
	return nil
}

func (r *fakeQrRepo) activeCount(couponID uuid.UUID, at time.Time) int {
	count := 0
	for _, qr := range r.qrs {
		if qr.CouponID == couponID && qr.ExpiredAt.After(at) {
			count++
		}
	}
	return count
}

// --- partner / product / member / token / audit repos ---

type fakePartnerRepo struct {
	partners map[uuid.UUID]*model.Partner
}

func newFakePartnerRepo() *fakePartnerRepo {
	return &fakePartnerRepo{partners: make(map[uuid.UUID]*model.Partner)}
}

func (r *fakePartnerRepo) Create(_ context.Context, partner *model.Partner) error {
	if partner.ID == uuid.Nil {
		partner.ID = uuid.New()
	}
	cp := *partner
	r.partners[partner.ID] = &cp
	return nil
}

func (r *fakePartnerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Partner, error) {
	p, ok := r.partners[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePartnerRepo) FindByEmail(_ context.Context, email string) (*model.Partner, error) {
	for _, p := range r.partners {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePartnerRepo) FindByPhone(_ context.Context, phone string) (*model.Partner, error) {
	for _, p := range r.partners {
		if p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePartnerRepo) Search(_ context.Context, keyword string, page, size int) ([]model.Partner, int64, error) {
	var out []model.Partner
	for _, p := range r.partners {
		if keyword == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(keyword)) {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByPartnerAndName(_ context.Context, partnerID uuid.UUID, name string) (*model.Product, error) {
	for _, p := range r.products {
		if p.PartnerID == partnerID && p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) Search(_ context.Context, partnerID uuid.UUID, keyword string, page, size int) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.PartnerID != partnerID {
			continue
		}
		if keyword == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(keyword)) {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

type fakeMemberRepo struct {
	members map[uuid.UUID]*model.Member
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[uuid.UUID]*model.Member)}
}

func (r *fakeMemberRepo) Create(_ context.Context, member *model.Member) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	cp := *member
	r.members[member.ID] = &cp
	return nil
}

func (r *fakeMemberRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMemberRepo) FindByEmail(_ context.Context, email string) (*model.Member, error) {
	for _, m := range r.members {
		if m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTokenRepo struct {
	tokens map[string]*model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeTokenRepo) FindValid(_ context.Context, token string, at time.Time) (*model.RefreshToken, error) {
	t, ok := r.tokens[token]
	if !ok || !t.ExpiresAt.After(at) {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, page, size int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range r.entries {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

// --- renderer ---

type fakeRenderer struct {
	calls int
	fail  bool
}

func (r *fakeRenderer) RenderQr(_ context.Context, data, fileName string) (string, error) {
	r.calls++
	if r.fail {
		return "", errors.New("render failed")
	}
	return "http://media.local/media/" + data, nil
}
