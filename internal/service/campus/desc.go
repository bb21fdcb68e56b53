package campus

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/campus-match/internal/server"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "campus.v1.CampusService"

// CampusServiceServer is the server API for CampusService.
type CampusServiceServer interface {
	LikeUser(context.Context, *LikeUserRequest) (*LikeUserResponse, error)
	DislikeUser(context.Context, *DislikeUserRequest) (*DislikeUserResponse, error)
	SearchPeople(context.Context, *SearchPeopleRequest) (*SearchPeopleResponse, error)
	ListLikers(context.Context, *ListLikersRequest) (*ListLikersResponse, error)
	CountLikers(context.Context, *CountLikersRequest) (*CountLikersResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	ListNotifications(context.Context, *ListNotificationsRequest) (*ListNotificationsResponse, error)
	MarkNotificationRead(context.Context, *MarkNotificationReadRequest) (*MarkNotificationReadResponse, error)
	CountUnreadNotifications(context.Context, *CountUnreadNotificationsRequest) (*CountUnreadNotificationsResponse, error)
	GetSuggestions(context.Context, *GetSuggestionsRequest) (*GetSuggestionsResponse, error)
	AcceptSuggestion(context.Context, *ResolveSuggestionRequest) (*ResolveSuggestionResponse, error)
	RejectSuggestion(context.Context, *ResolveSuggestionRequest) (*ResolveSuggestionResponse, error)
	NotifySuggestions(context.Context, *NotifySuggestionsRequest) (*NotifySuggestionsResponse, error)
	NearbyLocations(context.Context, *NearbyLocationsRequest) (*NearbyLocationsResponse, error)
}

// ServiceDesc describes CampusService for grpc.Server.RegisterService.
// Messages travel with the JSON codec registered by the server package; there
// is no .proto file, so the service is not exposed through reflection.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CampusServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("LikeUser", CampusServiceServer.LikeUser),
		unary("DislikeUser", CampusServiceServer.DislikeUser),
		unary("SearchPeople", CampusServiceServer.SearchPeople),
		unary("ListLikers", CampusServiceServer.ListLikers),
		unary("CountLikers", CampusServiceServer.CountLikers),
		unary("ListMatches", CampusServiceServer.ListMatches),
		unary("ListNotifications", CampusServiceServer.ListNotifications),
		unary("MarkNotificationRead", CampusServiceServer.MarkNotificationRead),
		unary("CountUnreadNotifications", CampusServiceServer.CountUnreadNotifications),
		unary("GetSuggestions", CampusServiceServer.GetSuggestions),
		unary("AcceptSuggestion", CampusServiceServer.AcceptSuggestion),
		unary("RejectSuggestion", CampusServiceServer.RejectSuggestion),
		unary("NotifySuggestions", CampusServiceServer.NotifySuggestions),
		unary("NearbyLocations", CampusServiceServer.NearbyLocations),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterCampusServiceServer attaches srv to s.
func RegisterCampusServiceServer(s grpc.ServiceRegistrar, srv CampusServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(CampusServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CampusServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CampusServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls CampusService over a gRPC connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(server.CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LikeUser(ctx context.Context, in *LikeUserRequest, opts ...grpc.CallOption) (*LikeUserResponse, error) {
	return invoke[LikeUserResponse](ctx, c.cc, "LikeUser", in, opts)
}

func (c *Client) DislikeUser(ctx context.Context, in *DislikeUserRequest, opts ...grpc.CallOption) (*DislikeUserResponse, error) {
	return invoke[DislikeUserResponse](ctx, c.cc, "DislikeUser", in, opts)
}

func (c *Client) SearchPeople(ctx context.Context, in *SearchPeopleRequest, opts ...grpc.CallOption) (*SearchPeopleResponse, error) {
	return invoke[SearchPeopleResponse](ctx, c.cc, "SearchPeople", in, opts)
}

func (c *Client) ListLikers(ctx context.Context, in *ListLikersRequest, opts ...grpc.CallOption) (*ListLikersResponse, error) {
	return invoke[ListLikersResponse](ctx, c.cc, "ListLikers", in, opts)
}

func (c *Client) CountLikers(ctx context.Context, in *CountLikersRequest, opts ...grpc.CallOption) (*CountLikersResponse, error) {
	return invoke[CountLikersResponse](ctx, c.cc, "CountLikers", in, opts)
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, "ListMatches", in, opts)
}

func (c *Client) ListNotifications(ctx context.Context, in *ListNotificationsRequest, opts ...grpc.CallOption) (*ListNotificationsResponse, error) {
	return invoke[ListNotificationsResponse](ctx, c.cc, "ListNotifications", in, opts)
}

func (c *Client) MarkNotificationRead(ctx context.Context, in *MarkNotificationReadRequest, opts ...grpc.CallOption) (*MarkNotificationReadResponse, error) {
	return invoke[MarkNotificationReadResponse](ctx, c.cc, "MarkNotificationRead", in, opts)
}

func (c *Client) CountUnreadNotifications(ctx context.Context, in *CountUnreadNotificationsRequest, opts ...grpc.CallOption) (*CountUnreadNotificationsResponse, error) {
	return invoke[CountUnreadNotificationsResponse](ctx, c.cc, "CountUnreadNotifications", in, opts)
}

func (c *Client) GetSuggestions(ctx context.Context, in *GetSuggestionsRequest, opts ...grpc.CallOption) (*GetSuggestionsResponse, error) {
	return invoke[GetSuggestionsResponse](ctx, c.cc, "GetSuggestions", in, opts)
}

func (c *Client) AcceptSuggestion(ctx context.Context, in *ResolveSuggestionRequest, opts ...grpc.CallOption) (*ResolveSuggestionResponse, error) {
	return invoke[ResolveSuggestionResponse](ctx, c.cc, "AcceptSuggestion", in, opts)
}

func (c *Client) RejectSuggestion(ctx context.Context, in *ResolveSuggestionRequest, opts ...grpc.CallOption) (*ResolveSuggestionResponse, error) {
	return invoke[ResolveSuggestionResponse](ctx, c.cc, "RejectSuggestion", in, opts)
}

func (c *Client) NotifySuggestions(ctx context.Context, in *NotifySuggestionsRequest, opts ...grpc.CallOption) (*NotifySuggestionsResponse, error) {
	return invoke[NotifySuggestionsResponse](ctx, c.cc, "NotifySuggestions", in, opts)
}

func (c *Client) NearbyLocations(ctx context.Context, in *NearbyLocationsRequest, opts ...grpc.CallOption) (*NearbyLocationsResponse, error) {
	return invoke[NearbyLocationsResponse](ctx, c.cc, "NearbyLocations", in, opts)
}
