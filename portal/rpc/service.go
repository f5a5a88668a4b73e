package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/form"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/registry"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/session"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully-qualified name of the portal service.
const ServiceName = "portal.v1.PortalService"

// Procedure paths of the portal service.
const (
	CreateSessionProcedure      = "/" + ServiceName + "/CreateSession"
	GetSessionProcedure         = "/" + ServiceName + "/GetSession"
	CloseSessionProcedure       = "/" + ServiceName + "/CloseSession"
	ListChainsProcedure         = "/" + ServiceName + "/ListChains"
	GetCurrencyOptionsProcedure = "/" + ServiceName + "/GetCurrencyOptions"
	ListExtensionsProcedure     = "/" + ServiceName + "/ListExtensions"
	ConnectExtensionProcedure   = "/" + ServiceName + "/ConnectExtension"
	SelectAccountProcedure      = "/" + ServiceName + "/SelectAccount"
	UpdateFormProcedure         = "/" + ServiceName + "/UpdateForm"
	SubmitTransferProcedure     = "/" + ServiceName + "/SubmitTransfer"
)

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type SessionResponse struct {
	Session session.Snapshot `json:"session"`
}

type ChainInfo struct {
	ID           models.ChainID `json:"id"`
	Relay        bool           `json:"relay"`
	RelayChain   models.ChainID `json:"relay_chain,omitempty"`
	NativeSymbol string         `json:"native_symbol,omitempty"`
}

type ListChainsResponse struct {
	Chains []ChainInfo `json:"chains"`
}

type CurrencyOptionsRequest struct {
	Origin      models.ChainID `json:"origin"`
	Destination models.ChainID `json:"destination"`
}

type CurrencyOptionsResponse struct {
	Options []models.CurrencyOption `json:"options"`
}

type ListExtensionsResponse struct {
	Extensions []string `json:"extensions"`
}

type ConnectExtensionRequest struct {
	SessionID string `json:"session_id"`
	Extension string `json:"extension"`
}

type AccountsResponse struct {
	Accounts []session.AccountView `json:"accounts"`
	Selected string                `json:"selected"`
}

type SelectAccountRequest struct {
	SessionID string `json:"session_id"`
	Address   string `json:"address"`
}

type UpdateFormRequest struct {
	SessionID string `json:"session_id"`
	session.FormPatch
}

type SubmitTransferResponse struct {
	Receipt *models.TransferReceipt `json:"receipt"`
}

// ChainCatalog is the read side of the asset registry the service needs.
type ChainCatalog interface {
	Chains() []models.ChainID
	GetChain(id models.ChainID) (*registry.RegistryChain, error)
}

// PortalService implements the portal procedures on top of the session store.
type PortalService struct {
	store    *session.Store
	chains   ChainCatalog
	resolver form.OptionsResolver
}

func NewPortalService(store *session.Store, chains ChainCatalog, resolver form.OptionsResolver) *PortalService {
	return &PortalService{store: store, chains: chains, resolver: resolver}
}

// Handlers returns the connect handlers keyed by procedure path.
func (s *PortalService) Handlers(opts ...connect.HandlerOption) map[string]http.Handler {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)
	return map[string]http.Handler{
		CreateSessionProcedure:      connect.NewUnaryHandler(CreateSessionProcedure, s.CreateSession, opts...),
		GetSessionProcedure:         connect.NewUnaryHandler(GetSessionProcedure, s.GetSession, opts...),
		CloseSessionProcedure:       connect.NewUnaryHandler(CloseSessionProcedure, s.CloseSession, opts...),
		ListChainsProcedure:         connect.NewUnaryHandler(ListChainsProcedure, s.ListChains, opts...),
		GetCurrencyOptionsProcedure: connect.NewUnaryHandler(GetCurrencyOptionsProcedure, s.GetCurrencyOptions, opts...),
		ListExtensionsProcedure:     connect.NewUnaryHandler(ListExtensionsProcedure, s.ListExtensions, opts...),
		ConnectExtensionProcedure:   connect.NewUnaryHandler(ConnectExtensionProcedure, s.ConnectExtension, opts...),
		SelectAccountProcedure:      connect.NewUnaryHandler(SelectAccountProcedure, s.SelectAccount, opts...),
		UpdateFormProcedure:         connect.NewUnaryHandler(UpdateFormProcedure, s.UpdateForm, opts...),
		SubmitTransferProcedure:     connect.NewUnaryHandler(SubmitTransferProcedure, s.SubmitTransfer, opts...),
	}
}

func (s *PortalService) CreateSession(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[SessionResponse], error) {
	sess := s.store.Create()
	return connect.NewResponse(&SessionResponse{Session: sess.Snapshot()}), nil
}

func (s *PortalService) GetSession(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&SessionResponse{Session: sess.Snapshot()}), nil
}

func (s *PortalService) CloseSession(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[emptypb.Empty], error) {
	if _, err := s.session(req.Msg.SessionID); err != nil {
		return nil, err
	}
	s.store.Delete(req.Msg.SessionID)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *PortalService) ListChains(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[ListChainsResponse], error) {
	ids := s.chains.Chains()
	chains := make([]ChainInfo, 0, len(ids))
	for _, id := range ids {
		chain, err := s.chains.GetChain(id)
		if err != nil {
			return nil, toConnectError(err)
		}
		chains = append(chains, ChainInfo{
			ID:           id,
			Relay:        chain.Relay,
			RelayChain:   chain.RelayChain,
			NativeSymbol: chain.NativeSymbol,
		})
	}
	return connect.NewResponse(&ListChainsResponse{Chains: chains}), nil
}

// GetCurrencyOptions resolves options for any pair without touching a session.
func (s *PortalService) GetCurrencyOptions(
	ctx context.Context,
	req *connect.Request[CurrencyOptionsRequest],
) (*connect.Response[CurrencyOptionsResponse], error) {
	if req.Msg.Origin == "" || req.Msg.Destination == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("origin and destination are required"))
	}
	opts, err := s.resolver.ResolveOptions(req.Msg.Origin, req.Msg.Destination)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CurrencyOptionsResponse{Options: opts.List}), nil
}

func (s *PortalService) ListExtensions(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[ListExtensionsResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	names, err := sess.Discover()
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListExtensionsResponse{Extensions: names}), nil
}

func (s *PortalService) ConnectExtension(
	ctx context.Context,
	req *connect.Request[ConnectExtensionRequest],
) (*connect.Response[AccountsResponse], error) {
	if req.Msg.Extension == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("extension is required"))
	}
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	accounts, err := sess.SelectExtension(ctx, req.Msg.Extension)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&AccountsResponse{
		Accounts: accounts,
		Selected: sess.Snapshot().SelectedAccount,
	}), nil
}

func (s *PortalService) SelectAccount(
	ctx context.Context,
	req *connect.Request[SelectAccountRequest],
) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.SelectAccount(req.Msg.Address); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{Session: sess.Snapshot()}), nil
}

func (s *PortalService) UpdateForm(
	ctx context.Context,
	req *connect.Request[UpdateFormRequest],
) (*connect.Response[SessionResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.UpdateForm(req.Msg.FormPatch); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{Session: sess.Snapshot()}), nil
}

// SubmitTransfer submits the session's form. The call returns once the origin
// node acknowledged the extrinsic, not when it is finalized.
func (s *PortalService) SubmitTransfer(
	ctx context.Context,
	req *connect.Request[SessionRequest],
) (*connect.Response[SubmitTransferResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	receipt, err := sess.Submit(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SubmitTransferResponse{Receipt: receipt}), nil
}

func (s *PortalService) session(id string) (*session.Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("session_id is required"))
	}
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return sess, nil
}
