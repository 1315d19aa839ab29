package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 클라이언트가 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력

	// ==================== 장바구니 (CART_) ====================
	CartInvalidQuantity  = "CART_INVALID_QUANTITY"  // 수량은 1 이상
	CartInvalidProduct   = "CART_INVALID_PRODUCT"   // 상품 참조 불완전
	CartLineNotFound     = "CART_LINE_NOT_FOUND"    // 장바구니 항목 없음
	CartMerchantMismatch = "CART_MERCHANT_MISMATCH" // 다른 가게 상품 (교체 확인 필요)
	CartEmpty            = "CART_EMPTY"             // 장바구니 비어 있음

	// ==================== 정기 주문 (RECURRING_) ====================
	RecurringNotFound      = "RECURRING_NOT_FOUND"       // 정기 주문 없음
	RecurringInvalidConfig = "RECURRING_INVALID_CONFIG"  // 잘못된 반복 설정

	// ==================== 서버 (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR" // 서버 오류
)
